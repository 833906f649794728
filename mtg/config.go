package mtg

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

type AppConfiguration struct {
	ClientId   string `toml:"client-id"`
	SessionId  string `toml:"session-id"`
	PrivateKey string `toml:"private-key"`
	PinToken   string `toml:"pin-token"`
	PIN        string `toml:"pin"`
}

type SaleConfiguration struct {
	Admin         string    `toml:"admin"`
	PaymentAssets []string  `toml:"payment-assets"`
	EscrowAsset   string    `toml:"escrow-asset"`
	Price         string    `toml:"price"`
	StorageCost   string    `toml:"storage-cost"`
	PrivateStart  time.Time `toml:"private-start"`
	PublicStart   time.Time `toml:"public-start"`
	Supply        uint64    `toml:"supply"`
	Collection    string    `toml:"collection"`
	Mode          string    `toml:"mode"`
	Title         string    `toml:"title"`
	Description   string    `toml:"description"`
	Media         string    `toml:"media"`
	Reference     string    `toml:"reference"`
}

type IssuerConfiguration struct {
	Endpoint string `toml:"endpoint"`
	Token    string `toml:"token"`
	Timeout  int    `toml:"timeout"`
	Batch    int    `toml:"batch"`
}

type HTTPConfiguration struct {
	Listen string  `toml:"listen"`
	Token  string  `toml:"token"`
	Rate   float64 `toml:"rate"`
	Burst  int     `toml:"burst"`
}

type Configuration struct {
	App    AppConfiguration    `toml:"app"`
	Sale   SaleConfiguration   `toml:"sale"`
	Issuer IssuerConfiguration `toml:"issuer"`
	HTTP   HTTPConfiguration   `toml:"http"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfiguration(f)
}

func ParseConfiguration(b []byte) (*Configuration, error) {
	var conf Configuration
	err := toml.Unmarshal(b, &conf)
	if err != nil {
		return nil, err
	}
	if conf.App.ClientId == "" {
		return nil, fmt.Errorf("empty app client id")
	}
	if conf.Issuer.Endpoint == "" {
		return nil, fmt.Errorf("empty issuer endpoint")
	}
	if conf.Sale.Mode == "" {
		conf.Sale.Mode = "optimistic"
	}
	if conf.Issuer.Timeout <= 0 {
		conf.Issuer.Timeout = 30
	}
	if conf.Issuer.Batch <= 0 {
		conf.Issuer.Batch = 16
	}
	if conf.HTTP.Listen == "" {
		conf.HTTP.Listen = "127.0.0.1:7080"
	}
	if conf.HTTP.Rate <= 0 {
		conf.HTTP.Rate = 20
	}
	if conf.HTTP.Burst <= 0 {
		conf.HTTP.Burst = 40
	}
	return &conf, nil
}
