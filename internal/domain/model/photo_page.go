package model

// PhotoRef 検索結果の画像参照
type PhotoRef struct {
	RemoteID  string `json:"remote_id"`
	RemoteURL string `json:"remote_url"`
	Title     string `json:"title,omitempty"`
}

// PhotoPage 検索結果の1ページ分
type PhotoPage struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	PerPage    int        `json:"per_page"`
	Total      int        `json:"total"`
	Refs       []PhotoRef `json:"refs"`
}

// IsEmpty 結果が0件か
func (p *PhotoPage) IsEmpty() bool {
	return p == nil || len(p.Refs) == 0
}
