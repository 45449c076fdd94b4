package telemetry

import (
	"fmt"

	"go.bug.st/serial"
)

// OpenSerial opens the telemetry serial port at baud, 8N1.
func OpenSerial(name string, baud int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", name, err)
	}
	return port, nil
}
