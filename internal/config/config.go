package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	MediaDir    string
	TaxRate     float64
	ShippingFee float64
	OrderPrefix string

	// Notification dispatch: "log" (default), "email" or "kafka".
	NotifyMode   string
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	KafkaBrokers string
	KafkaTopic   string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shophub.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./shophub.log"
	}

	cfg := Config{
		Port:         port,
		DBDSN:        dsn,
		LogFile:      logFile,
		MediaDir:     envStr("MEDIA_DIR", "./web/media"),
		TaxRate:      envFloat("TAX_RATE", 0.10),
		ShippingFee:  envFloat("SHIPPING_FLAT", 5.00),
		OrderPrefix:  envStr("ORDER_PREFIX", "ORD-"),
		NotifyMode:   envStr("NOTIFY_MODE", "log"),
		SMTPHost:     envStr("SMTP_HOST", "localhost"),
		SMTPPort:     envStr("SMTP_PORT", "25"),
		SMTPFrom:     envStr("SMTP_FROM", "orders@shophub.test"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   envStr("KAFKA_TOPIC", "shophub.order-events"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s NOTIFY_MODE=%s TAX_RATE=%.2f SHIPPING_FLAT=%.2f",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.NotifyMode, cfg.TaxRate, cfg.ShippingFee)
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %.2f", key, v, def)
		return def
	}
	return f
}
