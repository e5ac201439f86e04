package embed

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

//go:embed ui/dist
var dist embed.FS

// Frontend 单页应用的静态资源，index.html 启动时读入内存
type Frontend struct {
	files fs.FS
	index []byte
}

// NewFrontend 加载嵌入的前端资源
func NewFrontend() (*Frontend, error) {
	return newFrontend(dist, "ui/dist")
}

func newFrontend(root fs.FS, dir string) (*Frontend, error) {
	files, err := fs.Sub(root, dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	index, err := fs.ReadFile(files, "index.html")
	if err != nil {
		return nil, fmt.Errorf("load index.html: %w", err)
	}
	return &Frontend{files: files, index: index}, nil
}

// Register 挂载 favicon 与 SPA 回退，需在 API 路由之后调用
func (f *Frontend) Register(r *gin.Engine) {
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.StaticFileFS("/favicon.ico", "favicon.svg", http.FS(f.files))
	r.NoRoute(f.fallback)
}

// fallback 未命中的页面请求交给前端路由，API 与非 GET 请求直接 404
func (f *Frontend) fallback(c *gin.Context) {
	path := c.Request.URL.Path
	method := c.Request.Method
	if strings.HasPrefix(path, "/api/") || (method != http.MethodGet && method != http.MethodHead) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": path})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", f.index)
}

// SetupRouter 挂载嵌入的前端，资源缺失时只提供 API
func SetupRouter(r *gin.Engine) {
	f, err := NewFrontend()
	if err != nil {
		klog.Errorf("前端资源加载失败，仅提供 API: %v", err)
		return
	}
	f.Register(r)
}
