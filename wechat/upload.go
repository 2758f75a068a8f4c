package wechat

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/types"
)

// UploadResult 永久素材上传结果
type UploadResult struct {
	MediaID string
	URL     string
}

type uploadResponse struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
	apiError
}

// IsRemote 判断图片来源是否为 http(s) 地址
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// UploadImage 将本地文件或远程图片上传为永久图片素材。
// filename 非空时覆盖从来源推导出的文件名。
func (c *Client) UploadImage(ctx context.Context, source, token, filename string) (*UploadResult, error) {
	var (
		body    io.Reader
		derived string
	)

	if IsRemote(source) {
		data, err := c.download(ctx, source)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		derived = path.Base(strings.Split(source, "?")[0])
	} else {
		info, err := os.Stat(source)
		if err != nil {
			return nil, types.NewUploadError("读取图片失败: %s", source).WithCause(err)
		}
		f, err := os.Open(source)
		if err != nil {
			return nil, types.NewUploadError("读取图片失败: %s", source).WithCause(err)
		}
		defer f.Close()

		c.logger.Debug("uploading local image",
			zap.String("path", source),
			zap.Int64("size", info.Size()))

		body = f
		derived = filepath.Base(source)
	}

	if filename == "" {
		filename = withImageExt(derived)
	}

	var out uploadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": token,
			"type":         "image",
		}).
		SetMultipartField("media", filename, "image/png", body).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/cgi-bin/material/add_material")
	if err != nil {
		return nil, types.NewUploadError("上传失败: %v", err).WithCause(err)
	}

	if resp.IsError() {
		return nil, types.NewUploadError("上传失败: %s", resp.String()).
			WithHTTPStatus(resp.StatusCode())
	}

	if out.ErrCode != 0 {
		return nil, types.NewUploadError("上传失败，错误码：%d，错误信息：%s", out.ErrCode, out.ErrMsg).
			WithPlatformCode(out.ErrCode)
	}

	result := &UploadResult{MediaID: out.MediaID, URL: out.URL}
	if strings.HasPrefix(result.URL, "http://") {
		result.URL = "https://" + strings.TrimPrefix(result.URL, "http://")
	}

	return result, nil
}

// download 将远程图片完整读入内存
func (c *Client) download(ctx context.Context, source string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(source)
	if err != nil {
		return nil, types.NewUploadError("下载图片失败: %s", source).WithCause(err)
	}
	if resp.IsError() {
		return nil, types.NewUploadError("下载图片失败: %s，状态码：%d", source, resp.StatusCode()).
			WithHTTPStatus(resp.StatusCode())
	}
	return resp.Body(), nil
}

// withImageExt 文件名没有扩展名时补上 .jpg
func withImageExt(name string) string {
	if path.Ext(name) == "" {
		return name + ".jpg"
	}
	return name
}
