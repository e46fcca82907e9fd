// Package simulator produces meter telegrams for bench tests without a meter.
package simulator

import (
	"bytes"
	"fmt"

	"github.com/sigurn/crc16"
)

// DSMR meters append a CRC16/ARC over everything from '/' to '!' inclusive.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Build renders a telegram: header line, blank line, data lines, then '!'
// followed by the checksum and CRLF.
func Build(header string, lines []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("/")
	buf.WriteString(header)
	buf.WriteString("\r\n\r\n")
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString("\r\n")
	}
	buf.WriteString("!")
	buf.WriteString(Checksum(buf.Bytes()))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// Checksum returns the four digit upper case hex CRC of data.
func Checksum(data []byte) string {
	return fmt.Sprintf("%04X", crc16.Checksum(data, crcTable))
}

// SampleLines is a reading from an Iskraemeco single phase meter.
func SampleLines() []string {
	return []string{
		"0-0:96.1.0(84035454)",
		"0-0:96.1.1(36303834303335343534)",
		"1-0:0.9.1(155237)",
		"1-0:0.9.2(230510)",
		"1-0:1.8.0(000002.331*kWh)",
		"1-0:2.8.0(000000.000*kWh)",
		"1-0:1.7.0(00.000*kW)",
		"1-0:2.7.0(00.000*kW)",
		"1-0:3.7.0(00.000*kvar)",
		"1-0:4.7.0(00.000*kvar)",
		"1-0:31.7.0(000*A)",
		"1-0:32.7.0(230.9*V)",
	}
}

const SampleHeader = `ISk5\2MIE5E-200`
