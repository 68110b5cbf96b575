package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ran-controller/ran-controller-pro/internal/api"
	"github.com/ran-controller/ran-controller-pro/internal/config"
	"github.com/ran-controller/ran-controller-pro/internal/events"
	"github.com/ran-controller/ran-controller-pro/internal/handover"
	"github.com/ran-controller/ran-controller-pro/internal/intent"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/internal/storage"
	"github.com/ran-controller/ran-controller-pro/internal/vbsp"
	"github.com/ran-controller/ran-controller-pro/pkg/crypto"
)

func main() {
	// 命令行参数
	var configPath = flag.String("config", "config/ran-controller.yml", "配置文件路径")
	var validateOnly = flag.Bool("validate", false, "仅验证配置文件")
	var showConfig = flag.Bool("show-config", false, "显示配置并退出")
	flag.Parse()

	// 设置日志
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config_path", *configPath).Msg("加载配置失败")
	}

	// 设置日志级别与格式
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("无效的日志级别，使用info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if *showConfig {
		cfg.PrintConfigSummary()
		return
	}

	if *validateOnly {
		cfg.PrintConfigSummary()
		fmt.Println("✅ 配置文件验证通过")
		return
	}

	log.Info().
		Str("config_path", *configPath).
		Str("vbsp", cfg.VBSP.Listen).
		Int("api_port", cfg.API.Port).
		Msg("RAN Controller 启动")

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("运行失败")
	}
	log.Info().Msg("RAN Controller 已关闭")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWT.Secret == "" {
		secret, err := crypto.NewSecret(32)
		if err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWT.Secret = secret
		log.Warn().Msg("未配置JWT密钥，已生成临时密钥，重启后令牌失效")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// 连接NATS，未配置时事件与意图只在本地生效
	var pub events.Publisher
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg)
		if err != nil {
			return err
		}
		defer nc.Close()
		pub = nc
	}

	reg := registry.New()
	if err := seedRegistry(ctx, cfg, store, reg); err != nil {
		return err
	}

	hoTenant, err := cfg.HandoverTenant()
	if err != nil {
		return err
	}
	ho, err := handover.NewManager(cfg.Handover.Params, cfg.Handover.Period, hoTenant)
	if err != nil {
		return err
	}

	bus := events.NewBus(pub, store, cfg.VBSP.QueueSize)
	bus.Subscribe(events.CountEvents)
	intents := intent.NewClient(pub)

	srv := vbsp.NewServer(vbsp.Config{
		Listen:            cfg.VBSP.Listen,
		DefaultPeriod:     cfg.VBSP.DefaultPeriod,
		HeartbeatInterval: cfg.VBSP.HeartbeatInterval,
		MaxFrameSize:      cfg.VBSP.MaxFrameSize,
		QueueSize:         cfg.VBSP.QueueSize,
	}, reg, bus, ho, intents)

	rest := api.NewRESTServer(cfg, store, srv, ho)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bus.Run(gctx)
	})

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		if err := rest.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("正在关闭...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return rest.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore 配置了DSN时使用PostgreSQL，否则使用内存存储
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Database.DSN == "" {
		log.Warn().Int("max_events", cfg.Database.MemoryMaxEvents).Msg("未配置数据库，使用内存存储")
		return storage.NewMemoryStore(cfg.Database.MemoryMaxEvents), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := storage.NewPostgresStore(connectCtx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	store.SetPool(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	return store, nil
}

func connectNATS(cfg *config.Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.Server.Name),
		nats.ReconnectWait(cfg.NATS.ReconnectInterval),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS连接断开")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS已重连")
		}),
	}
	if cfg.NATS.ClientID != "" {
		opts[0] = nats.Name(cfg.NATS.ClientID)
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password))
	}

	nc, err := nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("已连接NATS")
	return nc, nil
}

// seedRegistry 把持久化的租户、基站和配置中的预置项加载到注册表；
// 存储中已有同名租户或同地址基站时以存储为准
func seedRegistry(ctx context.Context, cfg *config.Config, store storage.Store, reg *registry.Registry) error {
	storedTenants, _, err := store.ListTenants(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("load tenants: %w", err)
	}
	known := make(map[string]bool, len(storedTenants))
	for _, t := range storedTenants {
		if err := reg.AddTenant(t); err != nil {
			log.Warn().Err(err).Str("tenant", t.Name).Msg("跳过租户")
			continue
		}
		known[t.Name] = true
	}

	tenants, err := cfg.TenantModels()
	if err != nil {
		return err
	}
	for _, t := range tenants {
		if known[t.Name] {
			continue
		}
		if err := store.CreateTenant(ctx, t); err != nil {
			return fmt.Errorf("persist tenant %s: %w", t.Name, err)
		}
		if err := reg.AddTenant(t); err != nil {
			return fmt.Errorf("register tenant %s: %w", t.Name, err)
		}
	}

	storedVBSes, _, err := store.ListVBSes(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("load vbses: %w", err)
	}
	for _, v := range storedVBSes {
		if err := reg.AddVBS(v); err != nil {
			log.Warn().Err(err).Str("vbs", v.Addr.String()).Msg("跳过基站")
		}
	}

	vbses, err := cfg.VBSModels()
	if err != nil {
		return err
	}
	for _, v := range vbses {
		if _, ok := reg.VBS(v.Addr); ok {
			continue
		}
		if err := store.CreateVBS(ctx, v); err != nil {
			return fmt.Errorf("persist vbs %s: %w", v.Addr, err)
		}
		if err := reg.AddVBS(v); err != nil {
			return fmt.Errorf("register vbs %s: %w", v.Addr, err)
		}
	}

	log.Info().
		Int("tenants", len(reg.Tenants())).
		Int("vbses", len(reg.VBSes())).
		Msg("注册表已加载")
	return nil
}
