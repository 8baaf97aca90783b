package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the billing policy knobs that operators tune without
// redeploying: how many days after the billing period an invoice falls due,
// and how much overpayment is tolerated before a payment is rejected.
type BillingConfig struct {
	DueGraceDays         int     `mapstructure:"dueGraceDays"`
	OverpaymentTolerance float64 `mapstructure:"overpaymentTolerance"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DueGraceDays:         10,
		OverpaymentTolerance: 0,
	}
}

// BillingConfigHolder exposes the current billing policy and reloads it when
// the config file changes on disk.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/milkroute/config")
	v.AddConfigPath("/etc/milkroute")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MILKROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBillingConfig()
		v.SetDefault("billing.dueGraceDays", defaults.DueGraceDays)
		v.SetDefault("billing.overpaymentTolerance", defaults.OverpaymentTolerance)
	}

	holder := &BillingConfigHolder{}
	if err := holder.load(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		if err := holder.load(v); err != nil {
			log.Printf("billing config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *BillingConfigHolder) load(v *viper.Viper) error {
	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return err
	}
	if cfg.DueGraceDays <= 0 {
		cfg.DueGraceDays = DefaultBillingConfig().DueGraceDays
	}
	if cfg.OverpaymentTolerance < 0 {
		cfg.OverpaymentTolerance = 0
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the active billing policy.
func (h *BillingConfigHolder) Current() BillingConfig {
	if cfg, ok := h.current.Load().(BillingConfig); ok {
		return cfg
	}
	return DefaultBillingConfig()
}

// NewStaticBillingConfigHolder wraps a fixed config, used by tests.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}
