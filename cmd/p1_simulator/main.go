// P1 simulator writes meter telegrams to a serial port so the interpreter
// API can be tested on the bench without a meter.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/logging"
	"github.com/NotCoffee418/p1_obis_reader/pkg/simulator"
	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB1", "serial device to write telegrams to")
	baudrate := flag.Uint("baudrate", 115200, "baud rate")
	dataBits := flag.Uint("data-bits", 8, "data bits (7 for older meters)")
	interval := flag.Duration("interval", time.Second, "time between telegrams")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.Setup(*logLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	out, err := serial.Open(serial.OpenOptions{
		PortName:        *port,
		BaudRate:        *baudrate,
		DataBits:        *dataBits,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		logger.Fatal("failed to open serial port", zap.String("port", *port), zap.Error(err))
	}
	defer out.Close()

	logger.Info("Writing telegrams", zap.String("port", *port), zap.Duration("interval", *interval))
	meter := newMeterState()
	for {
		telegram := simulator.Build(simulator.SampleHeader, meter.next())
		if _, err := out.Write(telegram); err != nil {
			logger.Fatal("write telegram", zap.Error(err))
		}
		logger.Debug("Telegram written", zap.Int("bytes", len(telegram)))
		time.Sleep(*interval)
	}
}

// meterState produces plausible, slowly rising readings.
type meterState struct {
	importKWh float64
	rng       *rand.Rand
}

func newMeterState() *meterState {
	return &meterState{
		importKWh: 2.331,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *meterState) next() []string {
	powerKW := 0.2 + m.rng.Float64()*2
	m.importKWh += powerKW / 3600
	voltage := 228 + m.rng.Float64()*5
	current := int(powerKW * 1000 / voltage)
	now := time.Now()

	return []string{
		"0-0:96.1.0(84035454)",
		"0-0:96.1.1(36303834303335343534)",
		fmt.Sprintf("1-0:0.9.1(%s)", now.Format("150405")),
		fmt.Sprintf("1-0:0.9.2(%s)", now.Format("060102")),
		fmt.Sprintf("1-0:1.8.0(%010.3f*kWh)", m.importKWh),
		"1-0:2.8.0(000000.000*kWh)",
		fmt.Sprintf("1-0:1.7.0(%06.3f*kW)", powerKW),
		"1-0:2.7.0(00.000*kW)",
		"1-0:3.7.0(00.000*kvar)",
		"1-0:4.7.0(00.000*kvar)",
		fmt.Sprintf("1-0:31.7.0(%03d*A)", current),
		fmt.Sprintf("1-0:32.7.0(%05.1f*V)", voltage),
	}
}
