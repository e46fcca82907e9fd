package config

type MeterCollectorConfig struct {
	InterpreterAPIHost string `toml:"interpreter_api_host"`
	TLSEnabled         bool   `toml:"tls_enabled"`
	// Cron spec for hourly aggregation, minute precision.
	AggregationSchedule string `toml:"aggregation_schedule"`
	RetentionMonths     int    `toml:"retention_months"`
	LogLevel            string `toml:"log_level"`
}

type InterpreterAPIConfig struct {
	SerialDevice string `toml:"serial_device"`
	Baudrate     uint   `toml:"baudrate"`
	DataBits     uint   `toml:"data_bits"`
	Parity       string `toml:"parity"` // none, odd, even
	StopBits     uint   `toml:"stop_bits"`
	// Line driving the meter's data request pin, e.g. gpiochip0 / 14.
	// Set the offset to -1 when the pin is wired high.
	RequestPinChip   string `toml:"request_pin_chip"`
	RequestPinOffset int    `toml:"request_pin_offset"`
	BufferSize       int    `toml:"buffer_size"`
	ReadTimeoutMs    uint   `toml:"read_timeout_ms"`
	ReadIntervalMs   uint   `toml:"read_interval_ms"`
	ListenAddress    string `toml:"listen_address"`
	ListenPort       int    `toml:"listen_port"`
	DeviceName       string `toml:"device_name"`
	LogLevel         string `toml:"log_level"`
}
