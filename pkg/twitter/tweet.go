package twitter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/buger/jsonparser"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/models"
	"socialscraper/pkg/scraper"
)

const mediaTypePhoto = "photo"

// MapTweet maps one v1.1 tweet onto a post, its author and hashtags
func MapTweet(raw json.RawMessage) (*scraper.Entity, error) {
	id, err := tweetID(raw)
	if err != nil {
		return nil, errs.NewParsingError(err, 0)
	}

	createdAt, err := jsonparser.GetString(raw, "created_at")
	if err != nil {
		return nil, errs.NewParsingError(fmt.Errorf("tweet %s created_at: %w", id, err), 0)
	}
	created, err := time.Parse(time.RubyDate, createdAt)
	if err != nil {
		return nil, errs.NewParsingError(fmt.Errorf("tweet %s created_at: %w", id, err), 0)
	}

	text := optString(raw, "full_text")
	if text == "" {
		text = optString(raw, "text")
	}

	entity := &scraper.Entity{
		Post: models.Post{
			ExternalID:  id,
			CreatedDate: created.UTC(),
			Text:        text,
		},
	}

	if images := photos(raw); len(images) > 0 {
		entity.Post.Image = images[0]
		entity.Post.MediaType = mediaTypePhoto
	}

	if userID, err := tweetID(raw, "user"); err == nil {
		author := &models.User{
			ExternalID: userID,
			Handle:     optString(raw, "user", "screen_name"),
			Name:       optString(raw, "user", "name"),
			Avatar:     optString(raw, "user", "profile_image_url_https"),
		}
		if t, err := time.Parse(time.RubyDate, optString(raw, "user", "created_at")); err == nil {
			author.CreatedDate = t.UTC()
		}
		entity.Author = author
	}

	_, _ = jsonparser.ArrayEach(raw, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if tag := optString(value, "text"); tag != "" {
			entity.Tags = append(entity.Tags, tag)
		}
	}, "entities", "hashtags")

	return entity, nil
}

// URL is the public permalink of a stored tweet
func URL(post *models.Post) string {
	handle := post.RawString("user", "screen_name")
	if handle == "" && post.User != nil {
		handle = post.User.Handle
	}
	return fmt.Sprintf("https://www.twitter.com/%s/status/%s", handle, post.ExternalID)
}

// Images lists the photo urls attached to a stored tweet
func Images(post *models.Post) []string {
	return photos([]byte(post.RawData))
}

// HTML is the tweet text with links, mentions and hashtags as anchors
func HTML(post *models.Post) string {
	return Linkify(post.Text)
}

func photos(raw []byte) []string {
	var urls []string
	_, _ = jsonparser.ArrayEach(raw, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if optString(value, "type") != mediaTypePhoto {
			return
		}
		if u := optString(value, "media_url_https"); u != "" {
			urls = append(urls, u)
		}
	}, "entities", "media")
	return urls
}

var (
	linkPattern    = regexp.MustCompile(`(https?://\S+)`)
	mentionPattern = regexp.MustCompile(`(^|\s)@(\w+)`)
	hashtagPattern = regexp.MustCompile(`(^|\s)#(\w+)`)
)

// Linkify wraps urls, @mentions and #hashtags in anchors
func Linkify(text string) string {
	text = linkPattern.ReplaceAllString(text, `<a target="_blank" href="${1}">${1}</a>`)
	text = mentionPattern.ReplaceAllString(text, `${1}@<a target="_blank" href="https://twitter.com/${2}">${2}</a>`)
	text = hashtagPattern.ReplaceAllString(text, `${1}#<a target="_blank" href="https://search.twitter.com/search?q=%23${2}">${2}</a>`)
	return text
}

func optString(data []byte, keys ...string) string {
	v, err := jsonparser.GetString(data, keys...)
	if err != nil {
		return ""
	}
	return v
}
