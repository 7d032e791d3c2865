package instagram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/buger/jsonparser"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/models"
	"socialscraper/pkg/scraper"
)

// MapMedia maps one v1 media object onto a post, its author and tags
func MapMedia(raw json.RawMessage) (*scraper.Entity, error) {
	id, err := jsonparser.GetString(raw, "id")
	if err != nil {
		return nil, errs.NewParsingError(fmt.Errorf("media id: %w", err), 0)
	}

	created, err := unixTime(raw, "created_time")
	if err != nil {
		return nil, errs.NewParsingError(fmt.Errorf("media %s created_time: %w", id, err), 0)
	}

	entity := &scraper.Entity{
		Post: models.Post{
			ExternalID:  id,
			CreatedDate: created,
			Text:        optString(raw, "caption", "text"),
			Image:       optString(raw, "images", "standard_resolution", "url"),
			MediaType:   optString(raw, "type"),
		},
	}

	if userID := optString(raw, "user", "id"); userID != "" {
		entity.Author = &models.User{
			ExternalID: userID,
			Handle:     optString(raw, "user", "username"),
			Name:       optString(raw, "user", "full_name"),
			Avatar:     optString(raw, "user", "profile_picture"),
		}
	}

	_, _ = jsonparser.ArrayEach(raw, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
		if vt != jsonparser.String {
			return
		}
		if tag, err := jsonparser.ParseString(value); err == nil {
			entity.Tags = append(entity.Tags, tag)
		}
	}, "tags")

	return entity, nil
}

// Thumbnail is the small rendition of a stored media
func Thumbnail(post *models.Post) string {
	return post.RawString("images", "thumbnail", "url")
}

// URL is the public permalink of a stored media
func URL(post *models.Post) string {
	return post.RawString("link")
}

func optString(data []byte, keys ...string) string {
	v, err := jsonparser.GetString(data, keys...)
	if err != nil {
		return ""
	}
	return v
}

// unixTime reads a unix timestamp sent either as a number or a string
func unixTime(data []byte, keys ...string) (time.Time, error) {
	value, vt, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		return time.Time{}, err
	}
	if vt != jsonparser.String && vt != jsonparser.Number {
		return time.Time{}, fmt.Errorf("unexpected %s", vt)
	}
	secs, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}
