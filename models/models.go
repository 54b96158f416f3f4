package models

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	Symbol                   string  `env:"SYMBOL" envDefault:"NIFTY"`
	OIChangeThresholdPercent float64 `env:"OI_CHANGE_THRESHOLD_PERCENT" envDefault:"400.0"`
	OIRatioThreshold         float64 `env:"OI_RATIO_THRESHOLD" envDefault:"2.0"`
	StrikeRange              int     `env:"STRIKE_RANGE" envDefault:"6"` // ATM +/- N strikes
	PollIntervalSeconds      int     `env:"POLL_INTERVAL_SECONDS" envDefault:"60"`
	RequestTimeout           int     `env:"REQUEST_TIMEOUT" envDefault:"10"` // seconds

	// Baseline capture window, local market time (HH:MM)
	BaselineCaptureStart    string `env:"BASELINE_CAPTURE_START" envDefault:"09:17"`
	BaselineCaptureDeadline string `env:"BASELINE_CAPTURE_DEADLINE" envDefault:"09:22"`

	// Comma-separated expiry labels (02-Jan-2006). When empty, the expiry
	// list from the fetched chain document is used instead.
	ExpiryDates string `env:"EXPIRY_DATES" envDefault:""`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBName     string `env:"DB_NAME" envDefault:"oisentinel"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	EmailEnabled  bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPServer    string `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"465"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:""`
	EmailTo       string `env:"EMAIL_TO" envDefault:""`
	EmailPassword string `env:"EMAIL_PASSWORD" envDefault:""`

	TelegramEnabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// OptionSide identifies the call or put leg of a strike.
type OptionSide string

const (
	SideCall OptionSide = "CE"
	SidePut  OptionSide = "PE"
)

// Direction of an open-interest move relative to the baseline.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "FLAT"
)

// RawChainDocument represents the NSE option-chain API response
type RawChainDocument struct {
	Records ChainRecords `json:"records"`
}

// ChainRecords is the records envelope of the NSE response.
type ChainRecords struct {
	ExpiryDates     []string   `json:"expiryDates"`
	UnderlyingValue float64    `json:"underlyingValue"`
	Timestamp       string     `json:"timestamp"`
	Data            []ChainRow `json:"data"`
}

// ChainRow is one (strike, expiry) row; either leg may be absent.
type ChainRow struct {
	StrikePrice float64    `json:"strikePrice"`
	ExpiryDate  string     `json:"expiryDate"`
	CE          *OptionLeg `json:"CE,omitempty"`
	PE          *OptionLeg `json:"PE,omitempty"`
}

// OptionLeg carries the per-side fields the monitor reads.
type OptionLeg struct {
	OpenInterest      int64   `json:"openInterest"`
	ChangeInOI        int64   `json:"changeinOpenInterest"`
	TotalTradedVolume int64   `json:"totalTradedVolume"`
	LastPrice         float64 `json:"lastPrice"`
}

// StrikeOI is one strike's open interest at one instant. A side that was
// absent from the raw document keeps its Has flag false; the stored value
// is then zero and only downstream consumers decide how to treat it.
type StrikeOI struct {
	Strike  int64 `json:"strike"`
	CallOI  int64 `json:"call_oi"`
	PutOI   int64 `json:"put_oi"`
	HasCall bool  `json:"has_call"`
	HasPut  bool  `json:"has_put"`
}

// ChainSnapshot is the normalized view of one fetched option chain.
// Strikes is sorted ascending and mirrors the keys of OI.
type ChainSnapshot struct {
	SpotPrice  float64            `json:"spot_price"`
	StrikeStep int64              `json:"strike_step"` // 0 when undeterminable
	Strikes    []int64            `json:"strikes"`
	OI         map[int64]StrikeOI `json:"oi"`
	FetchedAt  time.Time          `json:"fetched_at"`
}

// SideOI holds both legs' open interest for one strike.
type SideOI struct {
	CE int64 `json:"ce"`
	PE int64 `json:"pe"`
}

// BaselineSnapshot is the day's immutable reference capture. At most one
// exists per (TradingDate, ExpiryLabel); once stored it is never updated
// for the rest of the trading day.
type BaselineSnapshot struct {
	TradingDate time.Time        `json:"trading_date"` // date component only
	ExpiryLabel string           `json:"expiry_label"`
	CapturedAt  time.Time        `json:"captured_at"`
	OI          map[int64]SideOI `json:"oi"`
}

// DeviationRecord is one (strike, side) comparison against the baseline.
// PercentChange is +Inf when the baseline was zero and the current value
// is not.
type DeviationRecord struct {
	BaseOI        int64     `json:"base_oi"`
	CurrentOI     int64     `json:"current_oi"`
	Delta         int64     `json:"delta"`
	PercentChange float64   `json:"percent_change"`
	Direction     Direction `json:"direction"`
}

// DeviationPair groups both sides of one strike.
type DeviationPair struct {
	CE DeviationRecord `json:"ce"`
	PE DeviationRecord `json:"pe"`
}

// AlertEvent is emitted when the compound trigger fires for a strike.
type AlertEvent struct {
	Timestamp    time.Time     `json:"timestamp"`
	TradingDate  time.Time     `json:"trading_date"`
	ExpiryLabel  string        `json:"expiry_label"`
	Symbol       string        `json:"symbol"`
	SpotPrice    float64       `json:"spot_price"`
	ATMStrike    int64         `json:"atm_strike"`
	Strike       int64         `json:"strike"`
	TriggerSide  OptionSide    `json:"trigger_side"`
	Deviation    DeviationPair `json:"deviation"`
	CurrentCE    int64         `json:"current_ce"`
	CurrentPE    int64         `json:"current_pe"`
	SideRatio    float64       `json:"side_ratio"`
	DominantSide OptionSide    `json:"dominant_side"`
}

// CycleStatus describes how one polling cycle ended.
type CycleStatus string

const (
	CycleSkippedClosed   CycleStatus = "SKIPPED_CLOSED"    // outside trading hours
	CycleSkippedNoData   CycleStatus = "SKIPPED_NO_DATA"   // fetch or normalize failed
	CycleWaitingBaseline CycleStatus = "WAITING_BASELINE"  // baseline not captured yet
	CycleCompleted       CycleStatus = "COMPLETED"
)

// CycleOutcome is the result of one orchestrator iteration.
type CycleOutcome struct {
	Status CycleStatus `json:"status"`
	Alerts int         `json:"alerts"`
}
