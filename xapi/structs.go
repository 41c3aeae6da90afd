package xapi

type APIResponse struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	RawBody    []byte              `json:"raw_body"`
}

type TopicSearchRequest struct {
	Query     string
	QueryType string
	Cursor    string
	SinceTime int64
}

type Author struct {
	Id             string `json:"id"`
	UserName       string `json:"userName"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	Followers      int    `json:"followers"`
	Following      int    `json:"following"`
	IsBlueVerified bool   `json:"isBlueVerified"`
	CreatedAt      string `json:"createdAt"`
}

type Tweet struct {
	Id           string `json:"id"`
	Url          string `json:"url"`
	Text         string `json:"text"`
	RetweetCount int    `json:"retweetCount"`
	ReplyCount   int    `json:"replyCount"`
	LikeCount    int    `json:"likeCount"`
	QuoteCount   int    `json:"quoteCount"`
	ViewCount    int    `json:"viewCount"`
	CreatedAt    string `json:"createdAt"`
	Lang         string `json:"lang"`
	Author       Author `json:"author"`
}

type TopicSearchResponse struct {
	Tweets      []Tweet `json:"tweets"`
	HasNextPage bool    `json:"has_next_page"`
	NextCursor  string  `json:"next_cursor"`
	Status      string  `json:"status"`
	Msg         string  `json:"msg"`
}

type TweetsByIdsResponse struct {
	Tweets []Tweet `json:"tweets"`
	Status string  `json:"status"`
	Msg    string  `json:"msg"`
}
