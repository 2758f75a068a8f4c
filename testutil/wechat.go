// =============================================================================
// 🧪 公众号接口 Fake
// =============================================================================
// 基于 httptest 的公众号接口模拟，覆盖 token、永久素材上传与草稿三个接口，
// 并记录每一次调用，便于断言调用顺序与参数。
//
// 使用方法:
//
//	fake := testutil.NewFakeWeChat(t).WithTokenError(40001, "invalid credential")
//	client := wechat.NewClient(config.WeChatConfig{BaseURL: fake.URL()}, nil, nil, nil)
// =============================================================================
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const (
	// FakeToken Fake 服务签发的 access token
	FakeToken = "fake-access-token"
	// FakeDraftMediaID Fake 服务返回的草稿 media_id
	FakeDraftMediaID = "draft-media-id"
)

// FakeCall 记录一次接口调用
type FakeCall struct {
	Path            string
	Query           url.Values
	Filename        string
	PartContentType string
	Size            int
	Body            []byte
}

// FakeWeChat 公众号接口模拟服务
type FakeWeChat struct {
	mu sync.Mutex

	server *httptest.Server

	tokenResponse string
	uploadErrors  map[string]int
	noMediaID     map[string]bool
	draftResponse string
	uploadURL     string
	images        map[string][]byte

	calls   []FakeCall
	uploads int
}

// NewFakeWeChat 创建并启动 Fake 服务，测试结束时自动关闭
func NewFakeWeChat(t testing.TB) *FakeWeChat {
	t.Helper()

	f := &FakeWeChat{
		tokenResponse: fmt.Sprintf(`{"access_token":%q,"expires_in":7200}`, FakeToken),
		uploadErrors:  map[string]int{},
		noMediaID:     map[string]bool{},
		draftResponse: fmt.Sprintf(`{"media_id":%q}`, FakeDraftMediaID),
		uploadURL:     "http://mmbiz.qpic.cn/fake/%d.png",
		images:        map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/token", f.handleToken)
	mux.HandleFunc("/cgi-bin/material/add_material", f.handleUpload)
	mux.HandleFunc("/cgi-bin/draft/add", f.handleDraft)
	mux.HandleFunc("/images/", f.handleImage)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// --- Builder 方法 ---

// WithTokenError token 接口返回错误码
func (f *FakeWeChat) WithTokenError(code int, msg string) *FakeWeChat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenResponse = fmt.Sprintf(`{"errcode":%d,"errmsg":%q}`, code, msg)
	return f
}

// WithTokenResponse 设置 token 接口的原始响应体
func (f *FakeWeChat) WithTokenResponse(body string) *FakeWeChat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenResponse = body
	return f
}

// WithUploadError 指定文件名的上传返回错误码
func (f *FakeWeChat) WithUploadError(filename string, code int) *FakeWeChat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadErrors[filename] = code
	return f
}

// WithoutMediaID 指定文件名的上传成功但响应中没有 media_id
func (f *FakeWeChat) WithoutMediaID(filename string) *FakeWeChat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noMediaID[filename] = true
	return f
}

// WithUploadURL 设置上传返回的 url 模板，%d 为上传序号，空字符串表示不返回 url
func (f *FakeWeChat) WithUploadURL(format string) *FakeWeChat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadURL = format
	return f
}

// WithDraftResponse 设置草稿接口的原始响应体
func (f *FakeWeChat) WithDraftResponse(body string) *FakeWeChat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draftResponse = body
	return f
}

// WithImage 在 /images/<name> 下提供一张可下载的图片，返回其完整 URL
func (f *FakeWeChat) WithImage(name string, data []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[name] = data
	return f.server.URL + "/images/" + name
}

// --- 查询方法 ---

// URL 返回 Fake 服务地址
func (f *FakeWeChat) URL() string {
	return f.server.URL
}

// Calls 返回所有调用记录的副本
func (f *FakeWeChat) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo 返回指定路径的调用记录
func (f *FakeWeChat) CallsTo(path string) []FakeCall {
	var out []FakeCall
	for _, c := range f.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Paths 按顺序返回被调用的接口路径
func (f *FakeWeChat) Paths() []string {
	calls := f.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Path)
	}
	return out
}

// --- handlers ---

func (f *FakeWeChat) record(c FakeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *FakeWeChat) handleToken(w http.ResponseWriter, r *http.Request) {
	f.record(FakeCall{Path: r.URL.Path, Query: r.URL.Query()})

	f.mu.Lock()
	body := f.tokenResponse
	f.mu.Unlock()
	writeJSON(w, body)
}

func (f *FakeWeChat) handleUpload(w http.ResponseWriter, r *http.Request) {
	call := FakeCall{Path: r.URL.Path, Query: r.URL.Query()}

	file, header, err := r.FormFile("media")
	if err != nil {
		f.record(call)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	call.Filename = header.Filename
	call.PartContentType = header.Header.Get("Content-Type")
	call.Size = len(data)
	call.Body = data
	f.record(call)

	f.mu.Lock()
	code, failed := f.uploadErrors[header.Filename]
	omitMediaID := f.noMediaID[header.Filename]
	f.uploads++
	n := f.uploads
	urlFormat := f.uploadURL
	f.mu.Unlock()

	if failed {
		writeJSON(w, fmt.Sprintf(`{"errcode":%d,"errmsg":"upload rejected"}`, code))
		return
	}

	resp := map[string]string{}
	if !omitMediaID {
		resp["media_id"] = fmt.Sprintf("media-%d", n)
	}
	if urlFormat != "" {
		resp["url"] = fmt.Sprintf(urlFormat, n)
	}
	data, _ = json.Marshal(resp)
	writeJSON(w, string(data))
}

func (f *FakeWeChat) handleDraft(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.record(FakeCall{Path: r.URL.Path, Query: r.URL.Query(), Body: body})

	f.mu.Lock()
	resp := f.draftResponse
	f.mu.Unlock()
	writeJSON(w, resp)
}

func (f *FakeWeChat) handleImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/images/")
	f.record(FakeCall{Path: r.URL.Path, Query: r.URL.Query()})

	f.mu.Lock()
	data, ok := f.images[name]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// 公众号接口始终以 text/plain 返回 JSON
func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, body)
}
