package flickr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"VirtualTourist-App/internal/domain/model"
)

const (
	DefaultBaseURL = "https://api.flickr.com/services/rest/"
	searchMethod   = "flickr.photos.search"

	// accuracy 11 = 市区町村レベル
	defaultAccuracy = 11
	maxBodyBytes    = 10 << 20
)

// ErrImageTooLarge 画像がサイズ上限を超えている
var ErrImageTooLarge = errors.New("画像がサイズ上限を超えています")

// Options Clientの検索パラメータ
type Options struct {
	APIKey   string
	BaseURL  string
	RadiusKm float64
	PerPage  int
	Timeout  time.Duration
}

// Client Flickr REST APIを使用した写真検索の実装
type Client struct {
	apiKey     string
	baseURL    string
	radiusKm   float64
	perPage    int
	httpClient *http.Client
}

// NewClient は新しいクライアントを生成する
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 21
	}
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = 10
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		radiusKm:   opts.RadiusKm,
		perPage:    opts.PerPage,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// SearchPhotos は座標周辺の写真を指定ページで検索する
func (c *Client) SearchPhotos(ctx context.Context, coord model.Coordinate, page int) (*model.PhotoPage, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	// 1. APIリクエストURLを構築
	reqURL, err := c.buildSearchURL(coord, page)
	if err != nil {
		return nil, fmt.Errorf("URLの構築に失敗: %w", err)
	}

	// 2. HTTPリクエストを作成・実行
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.NetworkError{Op: "photos.search", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &model.NetworkError{Op: "photos.search", Err: err}
	}

	// 3. JSONレスポンスをパース
	return parseSearchResponse(resp.StatusCode, body)
}

func parseSearchResponse(status int, body []byte) (*model.PhotoPage, error) {
	valid := gjson.ValidBytes(body)

	if valid {
		root := gjson.ParseBytes(body)
		if root.Get("stat").String() == "fail" {
			return nil, &model.MalformedResponseError{
				Message: root.Get("message").String(),
				Err:     fmt.Errorf("stat=fail code=%d", root.Get("code").Int()),
			}
		}
	}

	// 429 はレート制限による一時的な失敗
	if status >= 500 || status == http.StatusTooManyRequests {
		return nil, &model.NetworkError{
			Op:  "photos.search",
			Err: fmt.Errorf("APIからエラーステータスが返されました: %d", status),
		}
	}
	if status < 200 || status >= 300 {
		return nil, &model.MalformedResponseError{
			Err: fmt.Errorf("APIからエラーステータスが返されました: %d", status),
		}
	}
	if !valid {
		return nil, &model.MalformedResponseError{Err: errors.New("JSONのパースに失敗")}
	}

	photos := gjson.GetBytes(body, "photos")
	if !photos.IsObject() {
		return nil, &model.MalformedResponseError{Err: errors.New("photosが含まれていません")}
	}

	// 4. ドメインモデルに変換して返す
	result := &model.PhotoPage{
		Page:       int(photos.Get("page").Int()),
		TotalPages: int(photos.Get("pages").Int()),
		PerPage:    int(photos.Get("perpage").Int()),
		Total:      int(photos.Get("total").Int()),
		Refs:       []model.PhotoRef{},
	}
	photos.Get("photo").ForEach(func(_, p gjson.Result) bool {
		// url_mがない写真はスキップ
		u := p.Get("url_m").String()
		if u == "" {
			return true
		}
		result.Refs = append(result.Refs, model.PhotoRef{
			RemoteID:  p.Get("id").String(),
			RemoteURL: u,
			Title:     p.Get("title").String(),
		})
		return true
	})
	return result, nil
}

// DownloadImage は画像のバイト列を取得する
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.NetworkError{Op: "image.download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.NetworkError{
			Op:  "image.download",
			Err: fmt.Errorf("画像の取得でエラーステータスが返されました: %s", resp.Status),
		}
	}

	if resp.ContentLength > maxBodyBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, resp.ContentLength)
	}
	// 上限+1バイト読めたら切り詰められた画像とみなす
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &model.NetworkError{Op: "image.download", Err: err}
	}
	if len(data) > maxBodyBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

func (c *Client) buildSearchURL(coord model.Coordinate, page int) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("method", searchMethod)
	params.Set("api_key", c.apiKey)
	params.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(c.radiusKm, 'f', -1, 64))
	params.Set("radius_units", "km")
	params.Set("accuracy", strconv.Itoa(defaultAccuracy))
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.perPage))
	params.Set("extras", "url_m")
	params.Set("safe_search", "1")
	params.Set("content_type", "1")
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	base.RawQuery = params.Encode()
	return base.String(), nil
}
