// Package mocks 提供工具层依赖的测试模拟实现。
//
// 支持固定响应、错误注入与调用记录。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/mcptools/chat"
	"github.com/BaSui01/mcptools/wechat"
)

// --- MockGenerator ---

// GenerateCall 记录一次图片生成调用
type GenerateCall struct {
	Prompt   string
	SavePath string
}

// MockGenerator 图片生成的模拟实现
type MockGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []GenerateCall
}

// NewMockGenerator 创建 MockGenerator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{response: "Image generated and saved to: /tmp/mock.png"}
}

// WithResponse 设置固定响应
func (m *MockGenerator) WithResponse(text string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = text
	return m
}

// WithError 设置返回错误
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Generate 实现 tools.ImageGenerator
func (m *MockGenerator) Generate(_ context.Context, prompt, savePath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, GenerateCall{Prompt: prompt, SavePath: savePath})
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// Calls 返回调用记录
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateCall(nil), m.calls...)
}

// --- MockQuerier ---

// MockQuerier 问答的模拟实现
type MockQuerier struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []chat.QueryRequest
}

// NewMockQuerier 创建 MockQuerier
func NewMockQuerier() *MockQuerier {
	return &MockQuerier{response: "Mock response"}
}

// WithResponse 设置固定响应
func (m *MockQuerier) WithResponse(text string) *MockQuerier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = text
	return m
}

// WithError 设置返回错误
func (m *MockQuerier) WithError(err error) *MockQuerier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Query 实现 tools.ChatQuerier
func (m *MockQuerier) Query(_ context.Context, req chat.QueryRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// Calls 返回调用记录
func (m *MockQuerier) Calls() []chat.QueryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chat.QueryRequest(nil), m.calls...)
}

// --- MockPublisher ---

// MockPublisher 草稿发布的模拟实现
type MockPublisher struct {
	mu      sync.Mutex
	mediaID string
	err     error
	calls   []wechat.PublishRequest
}

// NewMockPublisher 创建 MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{mediaID: "mock-media-id"}
}

// WithMediaID 设置返回的草稿 media id
func (m *MockPublisher) WithMediaID(id string) *MockPublisher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaID = id
	return m
}

// WithError 设置返回错误
func (m *MockPublisher) WithError(err error) *MockPublisher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Publish 实现 tools.DraftPublisher
func (m *MockPublisher) Publish(_ context.Context, req wechat.PublishRequest) (*wechat.DraftResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &wechat.DraftResult{MediaID: m.mediaID}, nil
}

// Calls 返回调用记录
func (m *MockPublisher) Calls() []wechat.PublishRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]wechat.PublishRequest(nil), m.calls...)
}
