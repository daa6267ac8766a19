package lsp

import (
	"strings"
	"sync"

	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/codegen"
	"github.com/tangzhangming/stackrv/internal/isa"
	"github.com/tangzhangming/stackrv/internal/script"
)

// maxDocumentSize 超过这个大小的文档不做分析
const maxDocumentSize = 512 * 1024

// Document 表示一个打开的脚本
type Document struct {
	URI     string
	Content string
	Version int
	Lines   []string

	// 延迟分析的结果
	program  *script.Program
	insts    []isa.Inst
	listing  string
	errs     error
	analyzed bool
	mu       sync.Mutex
}

// analyze 解析并生成代码（内部方法，调用者持有 d.mu）
func (d *Document) analyze(opts codegen.Options) {
	if d.analyzed {
		return
	}
	d.analyzed = true
	d.program, d.insts, d.listing, d.errs = nil, nil, "", nil

	if len(d.Content) > maxDocumentSize {
		return
	}

	p, err := script.Parse(d.Filename(), d.Content)
	d.program = p
	if err != nil {
		d.errs = err
		return
	}
	g := codegen.New(opts)
	if err := script.Run(p, g); err != nil {
		d.errs = err
		return
	}
	d.insts = g.Instructions()
	d.listing = g.Listing()
}

// Result 返回分析结果
func (d *Document) Result(opts codegen.Options) (*script.Program, []isa.Inst, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.analyze(opts)
	return d.program, d.insts, d.errs
}

// Listing 返回生成的代码清单，分析失败时为空
func (d *Document) Listing() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listing
}

// text 返回当前的行文本
func (d *Document) text() lineIndex {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Lines
}

// Filename 文档的本地路径
func (d *Document) Filename() string {
	if strings.HasPrefix(d.URI, "file:") {
		return uri.URI(d.URI).Filename()
	}
	return d.URI
}

// DocumentManager 文档管理器，超过上限时按最近使用淘汰
type DocumentManager struct {
	docs      map[string]*Document // URI -> Document
	openOrder []string             // LRU 顺序（最近使用的在最后）
	maxDocs   int
	mu        sync.Mutex
	log       *zap.Logger
}

// NewDocumentManager 创建文档管理器
func NewDocumentManager(log *zap.Logger) *DocumentManager {
	return &DocumentManager{
		docs:    make(map[string]*Document),
		maxDocs: 32,
		log:     log,
	}
}

// Open 打开文档；已打开时更新内容
func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.docs[uri]; exists {
		dm.updateUnsafe(doc, content, version)
		return doc
	}

	if len(dm.docs) >= dm.maxDocs {
		dm.evictOldest()
	}

	doc := &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Lines:   splitLines(content),
	}
	dm.docs[uri] = doc
	dm.openOrder = append(dm.openOrder, uri)
	dm.log.Debug("document opened", zap.String("uri", uri), zap.Int("version", version), zap.Int("size", len(content)))
	return doc
}

// Update 更新文档内容
func (dm *DocumentManager) Update(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, exists := dm.docs[uri]
	if !exists {
		return nil
	}
	dm.updateUnsafe(doc, content, version)
	return doc
}

func (dm *DocumentManager) updateUnsafe(doc *Document, content string, version int) {
	doc.mu.Lock()
	doc.Content = content
	doc.Version = version
	doc.Lines = splitLines(content)
	doc.analyzed = false
	doc.mu.Unlock()
	dm.touch(doc.URI)
	dm.log.Debug("document updated", zap.String("uri", doc.URI), zap.Int("version", version))
}

// Close 关闭文档
func (dm *DocumentManager) Close(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, exists := dm.docs[uri]; !exists {
		return
	}
	delete(dm.docs, uri)
	dm.removeOrder(uri)
	dm.log.Debug("document closed", zap.String("uri", uri), zap.Int("remaining", len(dm.docs)))
}

// Get 获取文档
func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, exists := dm.docs[uri]
	if !exists {
		return nil
	}
	dm.touch(uri)
	return doc
}

// Count 返回当前打开的文档数量
func (dm *DocumentManager) Count() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.docs)
}

// touch 移到最近使用位置（调用者持有锁）
func (dm *DocumentManager) touch(uri string) {
	dm.removeOrder(uri)
	dm.openOrder = append(dm.openOrder, uri)
}

func (dm *DocumentManager) removeOrder(uri string) {
	for i, u := range dm.openOrder {
		if u == uri {
			dm.openOrder = append(dm.openOrder[:i], dm.openOrder[i+1:]...)
			return
		}
	}
}

// evictOldest 淘汰最久未使用的文档（调用者持有锁）
func (dm *DocumentManager) evictOldest() {
	if len(dm.openOrder) == 0 {
		return
	}
	oldest := dm.openOrder[0]
	delete(dm.docs, oldest)
	dm.openOrder = dm.openOrder[1:]
	dm.log.Info("evicted document", zap.String("uri", oldest))
}

// splitLines 按行切分，兼容 \r\n
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}
