package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

const twirpPath = "/twirp/comic.v1.Comic/"

var userAgents = []string{
	// Chrome
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	// Edge
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36 Edg/125.0.0.0",
	// Safari
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.3 Safari/605.1.15",
	// Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:72.0) Gecko/20100101 Firefox/72.0",
}

// MangaClient talks to the manga web API. It implements domain.Catalog,
// domain.LocatorResolver and domain.CredentialValidator.
type MangaClient struct {
	config *domain.APIConfig
	client *http.Client
	logger *zap.Logger
}

// NewMangaClient creates a new API client
func NewMangaClient(config *domain.APIConfig, logger *zap.Logger) *MangaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MangaClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

type commonResponse[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

type userInfoResponse struct {
	Code int `json:"code"`
	Data struct {
		IsLogin bool `json:"isLogin"`
	} `json:"data"`
}

type searchResponse struct {
	List []struct {
		ID        int64  `json:"id"`
		RealTitle string `json:"real_title"`
		Type      int    `json:"type"`
	} `json:"list"`
}

type detailResponse struct {
	Title  string           `json:"title"`
	EpList []domain.Episode `json:"ep_list"`
}

type imageIndexResponse struct {
	Images []struct {
		Path string `json:"path"`
	} `json:"images"`
}

type imageTokenItem struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// ValidateCredential reports whether the SESSDATA credential is logged in
func (c *MangaClient) ValidateCredential(ctx context.Context, credential string) (bool, error) {
	if credential == "" {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.UserBaseURL+"/x/web-interface/nav", nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req, c.config.BaseURL+"/", credential)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	var body userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode user info: %w", err)
	}

	return body.Code == 0 && body.Data.IsLogin, nil
}

// Search returns comics matching keyword. Non-comic results (vomic) are dropped.
func (c *MangaClient) Search(ctx context.Context, keyword string) ([]domain.Manga, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("search keyword is empty")
	}

	limit := c.config.SearchLimit
	if limit <= 0 {
		limit = 3
	}
	payload := map[string]interface{}{
		"key_word":  keyword,
		"page_num":  1,
		"page_size": limit,
	}
	referer := c.config.BaseURL + "/search?from=manga_homepage&keyword=" + url.QueryEscape(keyword)

	var data searchResponse
	if err := c.twirp(ctx, "Search", payload, referer, "", &data); err != nil {
		return nil, err
	}

	mangas := make([]domain.Manga, 0, len(data.List))
	for _, item := range data.List {
		if item.Type != 0 {
			continue
		}
		mangas = append(mangas, domain.Manga{ID: item.ID, Title: item.RealTitle, Type: item.Type})
	}
	return mangas, nil
}

// Episodes returns the episode list of a manga in catalog order
func (c *MangaClient) Episodes(ctx context.Context, mangaID int64) ([]domain.Episode, error) {
	detail, err := c.detail(ctx, mangaID)
	if err != nil {
		return nil, err
	}
	return detail.EpList, nil
}

// Manga returns the title and id of a manga
func (c *MangaClient) Manga(ctx context.Context, mangaID int64) (domain.Manga, error) {
	detail, err := c.detail(ctx, mangaID)
	if err != nil {
		return domain.Manga{}, err
	}
	return domain.Manga{ID: mangaID, Title: detail.Title}, nil
}

func (c *MangaClient) detail(ctx context.Context, mangaID int64) (*detailResponse, error) {
	payload := map[string]interface{}{"comic_id": mangaID}
	referer := fmt.Sprintf("%s/detail/mc%d?from=manga_search", c.config.BaseURL, mangaID)

	var data detailResponse
	if err := c.twirp(ctx, "ComicDetail", payload, referer, c.config.Cookie, &data); err != nil {
		return nil, err
	}
	// Unknown ids come back as an empty detail
	if data.Title == "" && len(data.EpList) == 0 {
		return nil, fmt.Errorf("manga %d: %w", mangaID, domain.ErrNotFound)
	}
	return &data, nil
}

// ResolveLocators returns the tokenized image URLs of an episode in page order
func (c *MangaClient) ResolveLocators(ctx context.Context, mangaID, episodeID int64, credential string) ([]string, error) {
	referer := fmt.Sprintf("%s/mc%d/%d?from=manga_detail", c.config.BaseURL, mangaID, episodeID)

	var index imageIndexResponse
	if err := c.twirp(ctx, "GetImageIndex", map[string]interface{}{"ep_id": episodeID}, referer, credential, &index); err != nil {
		return nil, &domain.ResolutionError{EpisodeID: episodeID, Err: fmt.Errorf("image index: %w", err)}
	}

	paths := make([]string, 0, len(index.Images))
	for _, image := range index.Images {
		paths = append(paths, image.Path)
	}
	if len(paths) == 0 {
		return nil, &domain.ResolutionError{EpisodeID: episodeID, Err: fmt.Errorf("episode has no images")}
	}

	// The token endpoint takes the path list as a JSON-encoded string
	encoded, err := json.Marshal(paths)
	if err != nil {
		return nil, &domain.ResolutionError{EpisodeID: episodeID, Err: err}
	}

	var tokens []imageTokenItem
	if err := c.twirp(ctx, "ImageToken", map[string]interface{}{"urls": string(encoded)}, referer, credential, &tokens); err != nil {
		return nil, &domain.ResolutionError{EpisodeID: episodeID, Err: fmt.Errorf("image token: %w", err)}
	}
	if len(tokens) != len(paths) {
		return nil, &domain.ResolutionError{
			EpisodeID: episodeID,
			Err:       fmt.Errorf("image token returned %d entries for %d images", len(tokens), len(paths)),
		}
	}

	locators := make([]string, len(tokens))
	for i, item := range tokens {
		locators[i] = item.URL + "?token=" + item.Token
	}

	c.logger.Debug("Resolved episode locators",
		zap.Int64("manga_id", mangaID),
		zap.Int64("episode_id", episodeID),
		zap.Int("count", len(locators)))

	return locators, nil
}

// twirp posts a JSON body to a comic RPC endpoint and decodes the data field
func (c *MangaClient) twirp(ctx context.Context, method string, payload interface{}, referer, credential string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	endpoint := c.config.BaseURL + twirpPath + method + "?device=pc&platform=web"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req, referer, credential)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("API request failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode))
		// Twirp answers not_found with a 404
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s request failed: %w", method, domain.ErrNotFound)
		}
		return fmt.Errorf("%s request failed: status %d", method, resp.StatusCode)
	}

	envelope := commonResponse[json.RawMessage]{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if envelope.Code != 0 {
		c.logger.Warn("API returned error code",
			zap.String("method", method),
			zap.Int("code", envelope.Code),
			zap.String("msg", envelope.Msg))
		return fmt.Errorf("%s request failed: code %d: %s", method, envelope.Code, envelope.Msg)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", method, err)
	}
	return nil
}

func (c *MangaClient) setHeaders(req *http.Request, referer, credential string) {
	req.Header.Set("Origin", c.config.BaseURL)
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Cookie", "SESSDATA="+credential)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
}
