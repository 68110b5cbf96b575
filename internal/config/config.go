package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ran-controller/ran-controller-pro/internal/handover"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig     `yaml:"server"`
	API      APIConfig        `yaml:"api"`
	Database DatabaseConfig   `yaml:"database"`
	NATS     NATSConfig       `yaml:"nats"`
	JWT      JWTConfig        `yaml:"jwt"`
	Log      LogConfig        `yaml:"log"`
	VBSP     VBSPConfig       `yaml:"vbsp"`
	Handover HandoverConfig   `yaml:"handover"`
	Accounts []models.Account `yaml:"accounts"`
	Tenants  []TenantConfig   `yaml:"tenants"`
	VBSes    []VBSConfig      `yaml:"vbses"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig represents database configuration, an empty DSN selects the in-memory store
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MemoryMaxEvents int           `yaml:"memory_max_events"`
}

// NATSConfig represents NATS configuration, an empty URL disables publication
type NATSConfig struct {
	URL               string        `yaml:"url"`
	ClientID          string        `yaml:"client_id"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// VBSPConfig 基站协议服务器配置
type VBSPConfig struct {
	Listen            string        `yaml:"listen"`
	DefaultPeriod     time.Duration `yaml:"default_period"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	MaxFrameSize      uint32        `yaml:"max_frame_size"`
	QueueSize         int           `yaml:"queue_size"`
}

// HandoverConfig 负载均衡参数
type HandoverConfig struct {
	handover.Params `yaml:",inline"`

	Period time.Duration `yaml:"period"`
	// 只对该租户的终端做切换，为空时不区分
	Tenant string `yaml:"tenant"`
}

// TenantConfig 预置租户
type TenantConfig struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Owner       string   `yaml:"owner"`
	PLMNID      string   `yaml:"plmn_id"`
	BSSIDType   string   `yaml:"bssid_type"`
	Prefix      string   `yaml:"prefix"`
	VBSes       []string `yaml:"vbses"`
	VAPs        []string `yaml:"vaps"`
}

// VBSConfig 预置基站
type VBSConfig struct {
	Addr     string        `yaml:"addr"`
	Label    string        `yaml:"label"`
	Supports []BlockConfig `yaml:"supports"`
}

// BlockConfig 基站支持的资源块
type BlockConfig struct {
	HWAddr  string `yaml:"hwaddr"`
	Channel uint32 `yaml:"channel"`
	Band    uint32 `yaml:"band"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and fills defaults
func Parse(data []byte) (*Config, error) {
	cfg := Config{Handover: HandoverConfig{Params: handover.DefaultParams()}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply environment overrides
	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}

	if listen := os.Getenv("VBSP_LISTEN"); listen != "" {
		c.VBSP.Listen = listen
	}
}

func (c *Config) setDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "ran-controller"
	}
	if c.API.Port == 0 {
		c.API.Port = 8888
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"*"}
	}
	if c.Database.MemoryMaxEvents == 0 {
		c.Database.MemoryMaxEvents = 10000
	}
	if c.NATS.ClientID == "" {
		c.NATS.ClientID = c.Server.Name
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = -1
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 2 * time.Second
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 24 * time.Hour
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.VBSP.Listen == "" {
		c.VBSP.Listen = ":2210"
	}
	if c.VBSP.DefaultPeriod == 0 {
		c.VBSP.DefaultPeriod = 5 * time.Second
	}
	if c.VBSP.HeartbeatInterval == 0 {
		c.VBSP.HeartbeatInterval = 500 * time.Millisecond
	}
	if c.VBSP.QueueSize == 0 {
		c.VBSP.QueueSize = 256
	}
	if c.Handover.Period == 0 {
		c.Handover.Period = handover.DefaultPeriod
	}
}

// Validate 检查参数范围和预置对象格式
func (c *Config) Validate() error {
	if err := c.Handover.Params.Validate(); err != nil {
		return fmt.Errorf("handover: %w", err)
	}
	if _, err := c.HandoverTenant(); err != nil {
		return err
	}
	if _, err := c.TenantModels(); err != nil {
		return err
	}
	if _, err := c.VBSModels(); err != nil {
		return err
	}
	for i, a := range c.Accounts {
		if a.Username == "" || a.PasswordHash == "" {
			return fmt.Errorf("accounts[%d]: username and password_hash are required", i)
		}
	}
	return nil
}

// HandoverTenant 负载均衡的租户范围，未配置时为nil
func (c *Config) HandoverTenant() (*uuid.UUID, error) {
	if c.Handover.Tenant == "" {
		return nil, nil
	}
	id, err := uuid.Parse(c.Handover.Tenant)
	if err != nil {
		return nil, fmt.Errorf("handover.tenant %q: %w", c.Handover.Tenant, err)
	}
	return &id, nil
}

// TenantModels 转换预置租户
func (c *Config) TenantModels() ([]*models.Tenant, error) {
	tenants := make([]*models.Tenant, 0, len(c.Tenants))
	for i, tc := range c.Tenants {
		t := &models.Tenant{
			Name:        tc.Name,
			Description: tc.Description,
			Owner:       tc.Owner,
			BSSIDType:   models.BSSIDType(tc.BSSIDType),
			IsActive:    true,
		}
		if t.Name == "" {
			return nil, fmt.Errorf("tenants[%d]: name is required", i)
		}

		if tc.ID != "" {
			id, err := uuid.Parse(tc.ID)
			if err != nil {
				return nil, fmt.Errorf("tenants[%d].id: %w", i, err)
			}
			t.ID = id
		}

		switch t.BSSIDType {
		case "":
			t.BSSIDType = models.BSSIDUnique
		case models.BSSIDUnique, models.BSSIDShared:
		default:
			return nil, fmt.Errorf("tenants[%d].bssid_type %q: must be unique or shared", i, tc.BSSIDType)
		}

		if tc.PLMNID != "" {
			plmn, err := strconv.ParseUint(tc.PLMNID, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("tenants[%d].plmn_id %q: %w", i, tc.PLMNID, err)
			}
			t.PLMNID = uint32(plmn)
		}

		var err error
		if tc.Prefix != "" {
			if t.Prefix, err = emage.ParseEtherAddress(tc.Prefix); err != nil {
				return nil, fmt.Errorf("tenants[%d].prefix: %w", i, err)
			}
		}
		if t.VBSes, err = parseAddrs(tc.VBSes); err != nil {
			return nil, fmt.Errorf("tenants[%d].vbses: %w", i, err)
		}
		if t.VAPs, err = parseAddrs(tc.VAPs); err != nil {
			return nil, fmt.Errorf("tenants[%d].vaps: %w", i, err)
		}

		tenants = append(tenants, t)
	}
	return tenants, nil
}

// VBSModels 转换预置基站，资源块归属于所在基站
func (c *Config) VBSModels() ([]*models.VBS, error) {
	vbses := make([]*models.VBS, 0, len(c.VBSes))
	for i, vc := range c.VBSes {
		addr, err := emage.ParseEtherAddress(vc.Addr)
		if err != nil {
			return nil, fmt.Errorf("vbses[%d].addr: %w", i, err)
		}

		v := models.NewVBS(addr, vc.Label)
		for j, bc := range vc.Supports {
			hw, err := emage.ParseEtherAddress(bc.HWAddr)
			if err != nil {
				return nil, fmt.Errorf("vbses[%d].supports[%d].hwaddr: %w", i, j, err)
			}
			v.Supports = append(v.Supports, models.ResourceBlock{
				Station: addr,
				HWAddr:  hw,
				Channel: bc.Channel,
				Band:    bc.Band,
			})
		}
		vbses = append(vbses, v)
	}
	return vbses, nil
}

func parseAddrs(in []string) ([]emage.EtherAddress, error) {
	out := make([]emage.EtherAddress, 0, len(in))
	for _, s := range in {
		a, err := emage.ParseEtherAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// PrintConfigSummary 打印配置摘要
func (c *Config) PrintConfigSummary() {
	fmt.Printf("=== RAN Controller Configuration ===\n")
	fmt.Printf("Server: %s v%s\n", c.Server.Name, c.Server.Version)
	fmt.Printf("API: %s:%d\n", c.API.Host, c.API.Port)
	fmt.Printf("VBSP Listen: %s (period %s, heartbeat %s)\n",
		c.VBSP.Listen, c.VBSP.DefaultPeriod, c.VBSP.HeartbeatInterval)

	if c.Database.DSN == "" {
		fmt.Printf("Storage: memory (max %d events)\n", c.Database.MemoryMaxEvents)
	} else {
		fmt.Printf("Storage: postgres\n")
	}
	if c.NATS.URL == "" {
		fmt.Printf("NATS: disabled\n")
	} else {
		fmt.Printf("NATS: %s\n", c.NATS.URL)
	}

	p := c.Handover.Params
	fmt.Printf("Handover: load_balance=%v period=%s\n", p.LoadBalance, c.Handover.Period)
	fmt.Printf("  Source DL/UL: %.0f%%/%.0f%%  Target DL/UL: %.0f%%/%.0f%%\n",
		p.SourceDL, p.SourceUL, p.TargetDL, p.TargetUL)
	fmt.Printf("  RSRQ threshold: %.0f  min UEs: %d  max from/to: %d/%d\n",
		p.RSRQThr, p.MinUE, p.MaxHOFrom, p.MaxHOTo)
	if c.Handover.Tenant != "" {
		fmt.Printf("  Tenant scope: %s\n", c.Handover.Tenant)
	}

	fmt.Printf("Accounts: %d\n", len(c.Accounts))
	fmt.Printf("Tenants: %d\n", len(c.Tenants))
	for _, t := range c.Tenants {
		fmt.Printf("  %s plmn=%s bssid=%s vbses=%d\n", t.Name, t.PLMNID, t.BSSIDType, len(t.VBSes))
	}
	fmt.Printf("VBSes: %d\n", len(c.VBSes))
	for _, v := range c.VBSes {
		fmt.Printf("  %s %q blocks=%d\n", v.Addr, v.Label, len(v.Supports))
	}

	fmt.Printf("==========================================\n")
}
