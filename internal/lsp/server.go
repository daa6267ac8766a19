// Package lsp 为栈操作脚本提供语言服务器：诊断、悬停、符号、跳转定义与补全。
//
// 传输层是标准输入输出上带 Content-Length 头的 JSON-RPC 消息。
package lsp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/codegen"
)

// Version 服务器版本
const Version = "0.1.0"

// JSON-RPC 错误码
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidRequest = -32600
)

// Server LSP 服务器
type Server struct {
	docs *DocumentManager
	opts codegen.Options
	log  *zap.Logger

	// 输入输出
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex

	// 服务器状态
	initialized atomic.Bool
	shutdown    atomic.Bool
	exit        atomic.Bool
}

// NewServer 创建 LSP 服务器
func NewServer(in io.Reader, out io.Writer, log *zap.Logger, opts codegen.Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	// 分析时的生成日志不进入服务器日志
	opts.Logger = nil
	return &Server{
		docs:   NewDocumentManager(log),
		opts:   opts,
		log:    log,
		reader: bufio.NewReader(in),
		writer: out,
	}
}

// Run 启动主循环，直到收到 exit 或输入结束
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("stackrv language server started", zap.String("version", Version))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.log.Info("client disconnected")
				return nil
			}
			// 帧头损坏后无法再找到下一条消息的边界
			s.log.Error("read message", zap.Error(err))
			return err
		}

		s.handleMessage(msg)

		if s.exit.Load() {
			s.log.Info("server exit", zap.Bool("clean", s.shutdown.Load()))
			return nil
		}
	}
}

// readMessage 读取一条 LSP 消息
func (s *Server) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line != "" {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			lengthStr := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %s", lengthStr)
			}
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, content); err != nil {
		return nil, err
	}
	s.log.Debug("received message", zap.Int("bytes", contentLength))
	return content, nil
}

// sendMessage 发送一条 LSP 消息
func (s *Server) sendMessage(msg interface{}) error {
	content, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(content)); err != nil {
		return err
	}
	_, err = s.writer.Write(content)
	return err
}

// handleMessage 按方法分发
func (s *Server) handleMessage(msg []byte) {
	var base struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		s.log.Error("parse message", zap.Error(err))
		s.sendError(nil, codeParseError, "Parse error")
		return
	}

	s.log.Debug("handling method", zap.String("method", base.Method))

	// shutdown 之后只接受 exit
	if s.shutdown.Load() && base.Method != "exit" {
		if base.ID != nil {
			s.sendError(base.ID, codeInvalidRequest, "Server is shutting down")
		}
		return
	}

	switch base.Method {
	case "initialize":
		s.handleInitialize(base.ID, base.Params)
	case "initialized":
		s.initialized.Store(true)
		s.log.Info("server initialized")
	case "shutdown":
		s.shutdown.Store(true)
		s.sendResult(base.ID, nil)
	case "exit":
		s.exit.Store(true)
	case "textDocument/didOpen":
		s.handleDidOpen(base.Params)
	case "textDocument/didChange":
		s.handleDidChange(base.Params)
	case "textDocument/didClose":
		s.handleDidClose(base.Params)
	case "textDocument/didSave":
		s.handleDidSave(base.Params)
	case "textDocument/hover":
		s.handleHover(base.ID, base.Params)
	case "textDocument/definition":
		s.handleDefinition(base.ID, base.Params)
	case "textDocument/documentSymbol":
		s.handleDocumentSymbol(base.ID, base.Params)
	case "textDocument/completion":
		s.handleCompletion(base.ID, base.Params)
	case "stackrv/listing":
		s.handleListing(base.ID, base.Params)
	default:
		s.log.Debug("unhandled method", zap.String("method", base.Method))
		if base.ID != nil {
			s.sendError(base.ID, codeMethodNotFound, "Method not found: "+base.Method)
		}
	}
}

// ============================================================================
// 生命周期
// ============================================================================

func (s *Server) handleInitialize(id json.RawMessage, params json.RawMessage) {
	var p protocol.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}
	s.log.Info("initialize", zap.String("root", string(p.RootURI)))

	result := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    1, // 完整同步
				"save": map[string]interface{}{
					"includeText": true,
				},
			},
			"hoverProvider":          true,
			"definitionProvider":     true,
			"documentSymbolProvider": true,
			"completionProvider":     map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "stackrvls",
			"version": Version,
		},
	}
	s.sendResult(id, result)
}

// ============================================================================
// 文档同步
// ============================================================================

func (s *Server) handleDidOpen(params json.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Error("parse didOpen params", zap.Error(err))
		return
	}
	doc := s.docs.Open(string(p.TextDocument.URI), p.TextDocument.Text, int(p.TextDocument.Version))
	s.publishDiagnostics(doc)
}

func (s *Server) handleDidChange(params json.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Error("parse didChange params", zap.Error(err))
		return
	}
	if len(p.ContentChanges) == 0 {
		return
	}
	// 完整同步：最后一次变更就是全文
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	if doc := s.docs.Update(string(p.TextDocument.URI), text, int(p.TextDocument.Version)); doc != nil {
		s.publishDiagnostics(doc)
	}
}

func (s *Server) handleDidClose(params json.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Error("parse didClose params", zap.Error(err))
		return
	}
	s.docs.Close(string(p.TextDocument.URI))
	// 清空该文档的诊断
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         p.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (s *Server) handleDidSave(params json.RawMessage) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Error("parse didSave params", zap.Error(err))
		return
	}
	if p.Text == "" {
		return
	}
	docURI := string(p.TextDocument.URI)
	if doc := s.docs.Get(docURI); doc != nil {
		s.publishDiagnostics(s.docs.Update(docURI, p.Text, doc.Version+1))
	}
}

// publishDiagnostics 分析文档并推送诊断
func (s *Server) publishDiagnostics(doc *Document) {
	_, _, err := doc.Result(s.opts)
	diags := toDiagnostics(doc.text(), err)
	s.log.Debug("publish diagnostics", zap.String("uri", doc.URI), zap.Int("count", len(diags)))
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI),
		Diagnostics: diags,
	})
}

// ============================================================================
// 请求
// ============================================================================

func (s *Server) handleHover(id json.RawMessage, params json.RawMessage) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}
	doc := s.docs.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, nil)
		return
	}
	if h := s.hover(doc, p.Position); h != nil {
		s.sendResult(id, h)
		return
	}
	s.sendResult(id, nil)
}

func (s *Server) handleDefinition(id json.RawMessage, params json.RawMessage) {
	var p protocol.DefinitionParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}
	doc := s.docs.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, nil)
		return
	}
	if loc := s.definition(doc, p.Position); loc != nil {
		s.sendResult(id, loc)
		return
	}
	s.sendResult(id, nil)
}

func (s *Server) handleDocumentSymbol(id json.RawMessage, params json.RawMessage) {
	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}
	doc := s.docs.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, []protocol.DocumentSymbol{})
		return
	}
	s.sendResult(id, s.documentSymbols(doc))
}

func (s *Server) handleCompletion(id json.RawMessage, params json.RawMessage) {
	var p protocol.CompletionParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}
	doc := s.docs.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, []protocol.CompletionItem{})
		return
	}
	s.sendResult(id, s.completions(doc))
}

// handleListing 返回文档的生成代码清单（扩展方法）
func (s *Server) handleListing(id json.RawMessage, params json.RawMessage) {
	var p protocol.TextDocumentIdentifier
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}
	doc := s.docs.Get(string(p.URI))
	if doc == nil {
		s.sendResult(id, nil)
		return
	}
	_, _, err := doc.Result(s.opts)
	if err != nil {
		s.sendResult(id, map[string]interface{}{"error": err.Error()})
		return
	}
	s.sendResult(id, map[string]interface{}{"listing": doc.Listing()})
}

// ============================================================================
// 响应
// ============================================================================

func (s *Server) sendResult(id json.RawMessage, result interface{}) {
	s.send(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) {
	s.send(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func (s *Server) sendNotification(method string, params interface{}) {
	s.send(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (s *Server) send(msg map[string]interface{}) {
	if err := s.sendMessage(msg); err != nil {
		s.log.Error("send message", zap.Error(err))
	}
}
