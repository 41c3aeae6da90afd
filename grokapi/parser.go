package grokapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/buger/jsonparser"
)

type Post struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	CreatedAt   time.Time  `json:"created_at"`
	Likes       int64      `json:"likes"`
	Reposts     int64      `json:"reposts"`
	Replies     int64      `json:"replies"`
	Quotes      int64      `json:"quotes"`
	Impressions int64      `json:"impressions"`
	Author      PostAuthor `json:"author"`
}

type PostAuthor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Followers int64  `json:"followers"`
	Verified  bool   `json:"verified"`
}

// ParseLiveSearchPosts extracts posts from a chat completion body.
// The model content is supposed to be a bare JSON array; code fences
// and surrounding prose are tolerated, anything worse is malformed.
func ParseLiveSearchPosts(body []byte) ([]Post, error) {
	content, err := jsonparser.GetString(body, "choices", "[0]", "message", "content")
	if err != nil {
		return nil, fmt.Errorf("%w: no message content: %s", ErrMalformedResponse, err)
	}

	arrayData := extractJSONArray(content)
	if arrayData == "" {
		return nil, fmt.Errorf("%w: content has no JSON array", ErrMalformedResponse)
	}

	var posts []Post
	var parseErr error
	_, err = jsonparser.ArrayEach([]byte(arrayData), func(item []byte, dataType jsonparser.ValueType, offset int, cbErr error) {
		if cbErr != nil {
			parseErr = fmt.Errorf("%w: array element at offset %d: %s", ErrMalformedResponse, offset, cbErr)
			return
		}

		post := Post{}
		post.ID, _ = jsonparser.GetString(item, "id")
		post.Text, _ = jsonparser.GetString(item, "text")
		post.Likes, _ = jsonparser.GetInt(item, "likes")
		post.Reposts, _ = jsonparser.GetInt(item, "reposts")
		post.Replies, _ = jsonparser.GetInt(item, "replies")
		post.Quotes, _ = jsonparser.GetInt(item, "quotes")
		post.Impressions, _ = jsonparser.GetInt(item, "impressions")

		if createdAt, err := jsonparser.GetString(item, "created_at"); err == nil {
			if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
				post.CreatedAt = parsed
			}
		}

		post.Author.ID, _ = jsonparser.GetString(item, "author", "id")
		post.Author.Username, _ = jsonparser.GetString(item, "author", "username")
		post.Author.Name, _ = jsonparser.GetString(item, "author", "name")
		post.Author.AvatarURL, _ = jsonparser.GetString(item, "author", "avatar_url")
		post.Author.Followers, _ = jsonparser.GetInt(item, "author", "followers")
		post.Author.Verified, _ = jsonparser.GetBoolean(item, "author", "verified")

		if post.ID != "" && post.Text != "" {
			posts = append(posts, post)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	return posts, nil
}

// extractJSONArray cuts the outermost [...] out of model text,
// stripping markdown code fences first.
func extractJSONArray(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}
