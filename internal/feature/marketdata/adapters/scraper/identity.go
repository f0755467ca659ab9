package scraper

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// Identity はリクエストに付与するブラウザ識別ヘッダの組です。
type Identity struct {
	Name    string            `yaml:"name"`
	Headers map[string]string `yaml:"headers"`
}

// Apply はヘッダをリクエストに設定します。
func (id Identity) Apply(req *http.Request) {
	for k, v := range id.Headers {
		req.Header.Set(k, v)
	}
}

// IdentityProvider は試行ごとに次のIdentityを返します。
type IdentityProvider interface {
	Next() Identity
}

// IdentitySource は1回のFetchごとに新しいIdentityProviderを生成します。
type IdentitySource interface {
	Rotation() IdentityProvider
}

// IdentityPool は固定のIdentity一覧です。
type IdentityPool struct {
	identities []Identity
}

var _ IdentitySource = (*IdentityPool)(nil)

// NewIdentityPool は指定したIdentityでプールを生成します。空の場合は組み込みの一覧を使用します。
func NewIdentityPool(identities ...Identity) *IdentityPool {
	if len(identities) == 0 {
		identities = defaultIdentities
	}
	return &IdentityPool{identities: identities}
}

// Len はプール内のIdentity数を返します。
func (p *IdentityPool) Len() int {
	return len(p.identities)
}

// Rotation は先頭から順に巡回するIdentityProviderを返します。末尾の次は先頭に戻ります。
func (p *IdentityPool) Rotation() IdentityProvider {
	return &rotation{identities: p.identities}
}

type rotation struct {
	identities []Identity
	i          int
}

func (r *rotation) Next() Identity {
	id := r.identities[r.i%len(r.identities)]
	r.i++
	return id
}

type identitiesFile struct {
	Identities []Identity `yaml:"identities"`
}

// LoadIdentities はYAMLファイルからIdentityプールを読み込みます。
//
//	identities:
//	  - name: chrome-win
//	    headers:
//	      User-Agent: "Mozilla/5.0 ..."
func LoadIdentities(path string) (*IdentityPool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identities file: %w", err)
	}
	var f identitiesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse identities file: %w", err)
	}
	if len(f.Identities) == 0 {
		return nil, errors.New("identities file contains no identities")
	}
	for i, id := range f.Identities {
		if id.Headers["User-Agent"] == "" {
			return nil, fmt.Errorf("identity %d (%s) has no User-Agent", i, id.Name)
		}
	}
	return NewIdentityPool(f.Identities...), nil
}

var defaultIdentities = []Identity{
	{
		Name: "chrome-windows",
		Headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "ja,en-US;q=0.9,en;q=0.8",
		},
	},
	{
		Name: "safari-mac",
		Headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "ja-JP,ja;q=0.9",
		},
	},
	{
		Name: "firefox-linux",
		Headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "ja,en-US;q=0.7,en;q=0.3",
		},
	},
	{
		Name: "edge-windows",
		Headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "ja,en;q=0.9",
		},
	},
	{
		Name: "safari-iphone",
		Headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "ja-JP,ja;q=0.9",
		},
	},
}
