package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Watcher 监听配置文件变化并向订阅方推送新配置。
// 服务运行期间主要用于热调整日志级别,数据库和端口等
// 启动期配置变更仍需重启生效。
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
	stopped   bool

	viper *viper.Viper
}

// NewWatcher 创建配置监听器,configPath 指向启动时加载的同一份文件
func NewWatcher(cfg *Config, configPath string) *Watcher {
	v := viper.New()
	v.SetConfigFile(configPath)

	return &Watcher{
		current: cfg,
		viper:   v,
	}
}

// OnChange 注册配置变更回调,回调在文件系统事件的 goroutine 里执行
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start 开始监听配置文件
func (w *Watcher) Start() error {
	if err := w.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	w.viper.WatchConfig()
	w.viper.OnConfigChange(func(e fsnotify.Event) {
		w.mu.RLock()
		stopped := w.stopped
		w.mu.RUnlock()
		if stopped {
			return
		}

		var newCfg Config
		if err := w.viper.Unmarshal(&newCfg); err != nil {
			logrus.WithError(err).WithField("file", e.Name).
				Warn("Config file changed but could not be parsed, keeping current config")
			return
		}

		logrus.WithFields(logrus.Fields{
			"file":      e.Name,
			"log_level": newCfg.Log.Level,
		}).Info("Config file reloaded")

		// 回调在锁外执行,避免回调里读配置造成死锁
		w.mu.RLock()
		callbacks := make([]func(*Config), len(w.callbacks))
		copy(callbacks, w.callbacks)
		w.mu.RUnlock()

		for _, callback := range callbacks {
			callback(&newCfg)
		}

		w.mu.Lock()
		w.current = &newCfg
		w.mu.Unlock()
	})

	return nil
}

// Stop 停止分发配置变更,已注册的回调不再被调用
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

// Current 返回最近一次成功加载的配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
