package wechat

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/testutil"
	"github.com/BaSui01/mcptools/types"
)

func newTestClient(fake *testutil.FakeWeChat) *Client {
	return NewClient(config.WeChatConfig{BaseURL: fake.URL()}, nil, nil, nil)
}

// =============================================================================
// Access Token
// =============================================================================

func TestGetAccessToken_Success(t *testing.T) {
	fake := testutil.NewFakeWeChat(t)
	client := newTestClient(fake)

	tok, err := client.GetAccessToken(testutil.TestContext(t), "wx-app", "wx-secret")
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeToken, tok.Value)
	assert.Equal(t, 7200, tok.ExpiresIn)

	calls := fake.CallsTo("/cgi-bin/token")
	require.Len(t, calls, 1)
	assert.Equal(t, "client_credential", calls[0].Query.Get("grant_type"))
	assert.Equal(t, "wx-app", calls[0].Query.Get("appid"))
	assert.Equal(t, "wx-secret", calls[0].Query.Get("secret"))
}

func TestGetAccessToken_ErrCode(t *testing.T) {
	fake := testutil.NewFakeWeChat(t).WithTokenError(40001, "invalid credential")
	client := newTestClient(fake)

	_, err := client.GetAccessToken(testutil.TestContext(t), "wx-app", "bad")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrAuth))
	assert.Contains(t, err.Error(), "40001")
	assert.Contains(t, err.Error(), "invalid credential")

	typed, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 40001, typed.PlatformCode)
}

func TestGetAccessToken_MissingToken(t *testing.T) {
	fake := testutil.NewFakeWeChat(t).WithTokenResponse(`{"expires_in":7200}`)
	client := newTestClient(fake)

	_, err := client.GetAccessToken(testutil.TestContext(t), "wx-app", "wx-secret")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrAuth))
	assert.Contains(t, err.Error(), `{"expires_in":7200}`)
}

func TestGetAccessToken_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.WeChatConfig{BaseURL: srv.URL}, nil, nil, nil)
	_, err := client.GetAccessToken(testutil.TestContext(t), "a", "b")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrAuth))
	assert.Contains(t, err.Error(), "gateway down")
}

// =============================================================================
// 素材上传
// =============================================================================

func TestUploadImage_LocalFile(t *testing.T) {
	fake := testutil.NewFakeWeChat(t)
	client := newTestClient(fake)
	p := testutil.WriteFile(t, t.TempDir(), "photo.png", testutil.PNG)

	res, err := client.UploadImage(testutil.TestContext(t), p, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, "media-1", res.MediaID)
	assert.Equal(t, "https://mmbiz.qpic.cn/fake/1.png", res.URL, "http url must be upgraded")

	calls := fake.CallsTo("/cgi-bin/material/add_material")
	require.Len(t, calls, 1)
	assert.Equal(t, "photo.png", calls[0].Filename)
	assert.Equal(t, "image/png", calls[0].PartContentType)
	assert.Equal(t, len(testutil.PNG), calls[0].Size)
	assert.Equal(t, "tok", calls[0].Query.Get("access_token"))
	assert.Equal(t, "image", calls[0].Query.Get("type"))
}

func TestUploadImage_Filename(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		override string
		want     string
	}{
		{name: "keeps extension", file: "a.jpeg", want: "a.jpeg"},
		{name: "appends jpg", file: "noext", want: "noext.jpg"},
		{name: "override wins", file: "a.png", override: "cover.jpg", want: "cover.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeWeChat(t)
			client := newTestClient(fake)
			p := testutil.WriteFile(t, dir, tt.file, testutil.PNG)

			_, err := client.UploadImage(testutil.TestContext(t), p, "tok", tt.override)
			require.NoError(t, err)

			calls := fake.CallsTo("/cgi-bin/material/add_material")
			require.Len(t, calls, 1)
			assert.Equal(t, tt.want, calls[0].Filename)
		})
	}
}

func TestUploadImage_MissingLocalFile(t *testing.T) {
	fake := testutil.NewFakeWeChat(t)
	client := newTestClient(fake)

	_, err := client.UploadImage(testutil.TestContext(t), filepath.Join(t.TempDir(), "nope.png"), "tok", "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpload))
	assert.Empty(t, fake.Calls())
}

func TestUploadImage_Remote(t *testing.T) {
	fake := testutil.NewFakeWeChat(t)
	client := newTestClient(fake)
	src := fake.WithImage("remote", testutil.PNG)

	_, err := client.UploadImage(testutil.TestContext(t), src+"?size=large", "tok", "")
	require.NoError(t, err)

	calls := fake.CallsTo("/cgi-bin/material/add_material")
	require.Len(t, calls, 1)
	assert.Equal(t, "remote.jpg", calls[0].Filename)
	assert.Equal(t, testutil.PNG, calls[0].Body)
}

func TestUploadImage_RemoteNotFound(t *testing.T) {
	fake := testutil.NewFakeWeChat(t)
	client := newTestClient(fake)

	_, err := client.UploadImage(testutil.TestContext(t), fake.URL()+"/images/missing.png", "tok", "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpload))
	assert.Empty(t, fake.CallsTo("/cgi-bin/material/add_material"))
}

func TestUploadImage_ErrCode(t *testing.T) {
	fake := testutil.NewFakeWeChat(t).WithUploadError("bad.png", 40007)
	client := newTestClient(fake)
	p := testutil.WriteFile(t, t.TempDir(), "bad.png", testutil.PNG)

	_, err := client.UploadImage(testutil.TestContext(t), p, "tok", "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpload))
	assert.Contains(t, err.Error(), "40007")
}

func TestWithImageExt(t *testing.T) {
	assert.Equal(t, "a.jpg", withImageExt("a"))
	assert.Equal(t, "a.gif", withImageExt("a.gif"))
	assert.True(t, IsRemote("https://x/y.png"))
	assert.True(t, IsRemote("http://x/y.png"))
	assert.False(t, IsRemote("/tmp/y.png"))
}

// =============================================================================
// 草稿
// =============================================================================

func TestAddDraft(t *testing.T) {
	fake := testutil.NewFakeWeChat(t)
	client := newTestClient(fake)

	id, err := client.AddDraft(testutil.TestContext(t), "tok", Article{
		Title:        "Hello",
		Content:      `<p>a & b</p>`,
		ThumbMediaID: "thumb",
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeDraftMediaID, id)

	calls := fake.CallsTo("/cgi-bin/draft/add")
	require.Len(t, calls, 1)
	assert.Equal(t, "tok", calls[0].Query.Get("access_token"))
	assert.JSONEq(t,
		`{"articles":[{"title":"Hello","content":"<p>a & b</p>","thumb_media_id":"thumb"}]}`,
		string(calls[0].Body))
	assert.Contains(t, string(calls[0].Body), "<p>a & b</p>")
}

func TestAddDraft_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "errcode", body: `{"errcode":45004,"errmsg":"description size out of limit"}`, want: "45004"},
		{name: "missing media id", body: `{}`, want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeWeChat(t).WithDraftResponse(tt.body)
			client := newTestClient(fake)

			_, err := client.AddDraft(testutil.TestContext(t), "tok", Article{Title: "t"})
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrPublish))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
