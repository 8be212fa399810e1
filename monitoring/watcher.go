package monitoring

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher 监控模型文件变更。已加载的模型在进程内不可变，变更只会被记录并提示重启。
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	paths   map[string]bool
	logger  *zap.Logger
	changes chan string
}

// NewArtifactWatcher 创建模型文件监控器
func NewArtifactWatcher(logger *zap.Logger, paths ...string) (*ArtifactWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// 监控目录而不是文件本身，以便捕获原子替换（rename）
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return &ArtifactWatcher{
		watcher: watcher,
		paths:   watched,
		logger:  logger,
		changes: make(chan string, 16),
	}, nil
}

// Changes 返回发生变更的模型文件路径
func (w *ArtifactWatcher) Changes() <-chan string {
	return w.changes
}

// Run 处理文件事件直到ctx结束
func (w *ArtifactWatcher) Run(ctx context.Context) {
	defer close(w.changes)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.paths[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Warn("artifact changed on disk; restart to serve the new version",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			select {
			case w.changes <- event.Name:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

// Close 停止监控
func (w *ArtifactWatcher) Close() error {
	return w.watcher.Close()
}
