package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Media is one ordered item of a post's media list.
type Media struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// MediaKindFromContentType tags an upload as image or video from its declared
// content type. Anything that is not a video is treated as an image.
func MediaKindFromContentType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return MediaVideo
	}
	return MediaImage
}

// MediaSlice is a custom type for handling JSON arrays of media items in database
type MediaSlice []Media

// Value implements driver.Valuer interface for database storage
func (ms MediaSlice) Value() (driver.Value, error) {
	if ms == nil {
		return nil, nil
	}
	return json.Marshal(ms)
}

// Scan implements sql.Scanner interface for database retrieval
func (ms *MediaSlice) Scan(value interface{}) error {
	if value == nil {
		*ms = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, ms)
	case string:
		return json.Unmarshal([]byte(v), ms)
	default:
		return fmt.Errorf("cannot scan %T into MediaSlice", value)
	}
}

// GormDataType returns the data type for GORM
func (MediaSlice) GormDataType() string {
	return "json"
}

// MarshalJSON implements json.Marshaler interface
func (ms MediaSlice) MarshalJSON() ([]byte, error) {
	if ms == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Media(ms))
}

// UnmarshalJSON implements json.Unmarshaler interface
func (ms *MediaSlice) UnmarshalJSON(data []byte) error {
	var slice []Media
	if err := json.Unmarshal(data, &slice); err != nil {
		return err
	}
	*ms = MediaSlice(slice)
	return nil
}
