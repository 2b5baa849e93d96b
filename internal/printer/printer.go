// Package printer drives the receipt printer. Calls are order-dependent:
// Open before printing, Close after, one article's lines never interleaved
// with another's.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/kenshaw/escpos"
)

// Printer is the device contract used by the print scheduler.
type Printer interface {
	Open() error
	PrintLine(text string) error
	Cut() error
	Close() error
}

// Device drives an ESC/POS receipt printer through its character device.
type Device struct {
	path string
	f    *os.File
	esc  *escpos.Escpos
}

// NewDevice creates a printer for the device node at path (e.g. /dev/usb/lp0).
// The device is not touched until Open.
func NewDevice(path string) *Device {
	return &Device{path: path}
}

// Open opens the device node and initialises the printer.
func (d *Device) Open() error {
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open printer device %s: %w", d.path, err)
	}
	d.f = f
	d.esc = escpos.New(f)
	d.esc.Init()
	return nil
}

// PrintLine writes one line of text followed by a line feed.
func (d *Device) PrintLine(text string) error {
	if d.esc == nil {
		return fmt.Errorf("printer not open")
	}
	if _, err := d.esc.Write(text); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	d.esc.Linefeed()
	return nil
}

// Cut feeds past the tear bar and cuts the paper.
func (d *Device) Cut() error {
	if d.esc == nil {
		return fmt.Errorf("printer not open")
	}
	d.esc.FormfeedN(3)
	d.esc.Cut()
	return nil
}

// Close ends the print session and releases the device.
func (d *Device) Close() error {
	if d.f == nil {
		return nil
	}
	d.esc.End()
	err := d.f.Close()
	d.f, d.esc = nil, nil
	if err != nil {
		return fmt.Errorf("close printer device: %w", err)
	}
	return nil
}

// Console writes lines to a writer instead of a physical device. It backs
// dry-run mode and replay output.
type Console struct {
	w io.Writer
}

// NewConsole creates a console printer writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Open() error { return nil }

func (c *Console) PrintLine(text string) error {
	_, err := fmt.Fprintln(c.w, text)
	return err
}

func (c *Console) Cut() error {
	_, err := fmt.Fprintln(c.w, "----------------[cut]----------------")
	return err
}

func (c *Console) Close() error { return nil }
