package rf

import (
	"errors"
	"fmt"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// nRF24L01+ SPI commands.
const (
	cmdReadRegister  = 0x00
	cmdWriteRegister = 0x20
	cmdReadRXPayload = 0x61
	cmdReadRXWidth   = 0x60
	cmdFlushTX       = 0xe1
	cmdFlushRX       = 0xe2
	cmdNOP           = 0xff
)

// nRF24L01+ registers.
const (
	regConfig     = 0x00
	regEnAA       = 0x01
	regEnRXAddr   = 0x02
	regSetupAW    = 0x03
	regSetupRetr  = 0x04
	regRFChannel  = 0x05
	regRFSetup    = 0x06
	regStatus     = 0x07
	regRXAddrP0   = 0x0a
	regFIFOStatus = 0x17
	regDynPD      = 0x1c
	regFeature    = 0x1d
)

// Register bits.
const (
	cfgPrimRX = 0x01
	cfgPwrUp  = 0x02
	cfgCRCO   = 0x04
	cfgEnCRC  = 0x08

	rfSetupDRHigh = 0x08 // 2Mbps

	statusRXDataReady = 0x40

	featureEnDPL = 0x04

	fifoRXEmpty = 0x01
)

// Radio is the receive-side face of the transceiver. Implemented by the
// nRF24L01+ driver below and by test fakes.
type Radio interface {
	// OpenReadingPipe assigns a 5-byte address to pipe 0..5.
	OpenReadingPipe(pipe int, addr []byte) error
	// StartListening raises CE and enters RX mode.
	StartListening() error
	// StopListening drops CE.
	StopListening() error
	// PowerUp brings the radio out of power-down.
	PowerUp() error
	// PowerDown puts the radio to sleep.
	PowerDown() error
	// Available reports whether a payload is waiting in the RX FIFO.
	Available() (bool, error)
	// ReadPayload pops one dynamic payload from the RX FIFO.
	ReadPayload() ([]byte, error)
	// Close releases the SPI port and CE line.
	Close() error
}

// nrf24 drives an nRF24L01+ over SPI with a GPIO chip-enable line.
type nrf24 struct {
	conn spi.Conn
	port spi.PortCloser
	ce   *gpiod.Line
}

// OpenRadio initialises the transceiver with the remote's air settings:
// the configured channel, 2Mbps, 16-bit CRC and dynamic payload lengths.
func OpenRadio(cfg Config) (Radio, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("rf: host init: %w", err)
	}

	port, err := spireg.Open(cfg.SPIDev)
	if err != nil {
		return nil, fmt.Errorf("rf: open spi port %q: %w", cfg.SPIDev, err)
	}

	conn, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("rf: connect spi: %w", err)
	}

	chip, err := gpiod.NewChip(cfg.Chip)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("rf: open chip %s: %w", cfg.Chip, err)
	}
	ce, err := chip.RequestLine(cfg.CEPin, gpiod.AsOutput(0))
	chip.Close()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("rf: request ce pin %d: %w", cfg.CEPin, err)
	}

	r := &nrf24{conn: conn, port: port, ce: ce}
	if err := r.begin(cfg.Channel); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// begin applies the air configuration and verifies the chip answers.
func (r *nrf24) begin(channel uint8) error {
	// Settling time from power-on per the datasheet.
	time.Sleep(5 * time.Millisecond)

	steps := []struct {
		reg byte
		val byte
	}{
		{regConfig, cfgEnCRC | cfgCRCO}, // 16-bit CRC, powered down
		{regSetupAW, 0x03},              // 5-byte addresses
		{regSetupRetr, 0x00},            // receive only, no auto retransmit
		{regEnAA, 0x00},                 // remote does not use auto-ack
		{regRFChannel, channel},
		{regRFSetup, rfSetupDRHigh}, // 2Mbps
		{regFeature, featureEnDPL},
		{regDynPD, 0x3f}, // dynamic payloads on all pipes
	}
	for _, s := range steps {
		if err := r.writeRegister(s.reg, s.val); err != nil {
			return err
		}
	}

	// A dead or absent chip reads back zeros; the channel write is the
	// cheapest liveness probe.
	got, err := r.readRegister(regRFChannel)
	if err != nil {
		return err
	}
	if got != channel {
		return ErrRadioNotResponding
	}

	if err := r.command(cmdFlushRX); err != nil {
		return err
	}
	return r.command(cmdFlushTX)
}

func (r *nrf24) OpenReadingPipe(pipe int, addr []byte) error {
	if pipe < 0 || pipe > 5 {
		return fmt.Errorf("rf: pipe %d out of range 0-5", pipe)
	}
	if len(addr) != 5 {
		return ErrInvalidAddress
	}

	if pipe <= 1 {
		// Pipes 0 and 1 carry full 5-byte addresses, LSB first on the wire.
		buf := make([]byte, 6)
		buf[0] = cmdWriteRegister | byte(regRXAddrP0+pipe)
		for i := 0; i < 5; i++ {
			buf[1+i] = addr[4-i]
		}
		if err := r.conn.Tx(buf, make([]byte, len(buf))); err != nil {
			return fmt.Errorf("rf: write pipe %d address: %w", pipe, err)
		}
	} else {
		// Pipes 2..5 share the high bytes of pipe 1 and take a single LSB.
		if err := r.writeRegister(byte(regRXAddrP0+pipe), addr[4]); err != nil {
			return err
		}
	}

	enabled, err := r.readRegister(regEnRXAddr)
	if err != nil {
		return err
	}
	return r.writeRegister(regEnRXAddr, enabled|1<<pipe)
}

func (r *nrf24) StartListening() error {
	cfg, err := r.readRegister(regConfig)
	if err != nil {
		return err
	}
	if err := r.writeRegister(regConfig, cfg|cfgPrimRX); err != nil {
		return err
	}
	if err := r.writeRegister(regStatus, statusRXDataReady); err != nil {
		return err
	}
	if err := r.ce.SetValue(1); err != nil {
		return fmt.Errorf("rf: raise ce: %w", err)
	}
	// RX settling per the datasheet.
	time.Sleep(130 * time.Microsecond)
	return nil
}

func (r *nrf24) StopListening() error {
	if err := r.ce.SetValue(0); err != nil {
		return fmt.Errorf("rf: drop ce: %w", err)
	}
	return nil
}

func (r *nrf24) PowerUp() error {
	cfg, err := r.readRegister(regConfig)
	if err != nil {
		return err
	}
	if cfg&cfgPwrUp != 0 {
		return nil
	}
	if err := r.writeRegister(regConfig, cfg|cfgPwrUp); err != nil {
		return err
	}
	// Oscillator start-up.
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (r *nrf24) PowerDown() error {
	if err := r.ce.SetValue(0); err != nil {
		return fmt.Errorf("rf: drop ce: %w", err)
	}
	cfg, err := r.readRegister(regConfig)
	if err != nil {
		return err
	}
	return r.writeRegister(regConfig, cfg&^cfgPwrUp)
}

func (r *nrf24) Available() (bool, error) {
	fifo, err := r.readRegister(regFIFOStatus)
	if err != nil {
		return false, err
	}
	return fifo&fifoRXEmpty == 0, nil
}

func (r *nrf24) ReadPayload() ([]byte, error) {
	// Dynamic payload width first.
	w := []byte{cmdReadRXWidth, cmdNOP}
	rx := make([]byte, 2)
	if err := r.conn.Tx(w, rx); err != nil {
		return nil, fmt.Errorf("rf: read payload width: %w", err)
	}
	width := int(rx[1])
	if width == 0 || width > 32 {
		// Corrupt width; the datasheet requires an RX flush.
		if err := r.command(cmdFlushRX); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("rf: corrupt payload width %d", width)
	}

	w = make([]byte, width+1)
	w[0] = cmdReadRXPayload
	for i := 1; i < len(w); i++ {
		w[i] = cmdNOP
	}
	rx = make([]byte, width+1)
	if err := r.conn.Tx(w, rx); err != nil {
		return nil, fmt.Errorf("rf: read payload: %w", err)
	}

	if err := r.writeRegister(regStatus, statusRXDataReady); err != nil {
		return nil, err
	}
	return rx[1:], nil
}

func (r *nrf24) Close() error {
	var errs []error
	if r.ce != nil {
		if err := r.ce.SetValue(0); err != nil {
			errs = append(errs, err)
		}
		if err := r.ce.Close(); err != nil {
			errs = append(errs, fmt.Errorf("rf: close ce line: %w", err))
		}
	}
	if r.port != nil {
		if err := r.port.Close(); err != nil {
			errs = append(errs, fmt.Errorf("rf: close spi port: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (r *nrf24) readRegister(reg byte) (byte, error) {
	w := []byte{cmdReadRegister | reg, cmdNOP}
	rx := make([]byte, 2)
	if err := r.conn.Tx(w, rx); err != nil {
		return 0, fmt.Errorf("rf: read register %#02x: %w", reg, err)
	}
	return rx[1], nil
}

func (r *nrf24) writeRegister(reg, val byte) error {
	w := []byte{cmdWriteRegister | reg, val}
	if err := r.conn.Tx(w, make([]byte, 2)); err != nil {
		return fmt.Errorf("rf: write register %#02x: %w", reg, err)
	}
	return nil
}

func (r *nrf24) command(cmd byte) error {
	if err := r.conn.Tx([]byte{cmd}, make([]byte, 1)); err != nil {
		return fmt.Errorf("rf: command %#02x: %w", cmd, err)
	}
	return nil
}
