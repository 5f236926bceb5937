package ble

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

// DeviceInfo is a snapshot of one remote device known to BlueZ.
type DeviceInfo struct {
	Path      string
	Address   string
	Name      string
	Paired    bool
	Connected bool
	Trusted   bool
}

// Adapter is the peripheral's view of the Bluetooth stack. The production
// implementation talks to BlueZ over the system bus; tests substitute a
// spy to verify call ordering.
type Adapter interface {
	// Setup powers the adapter and makes it discoverable and pairable.
	Setup(ctx context.Context) error
	// ExportApplication registers the GATT tree and pairing agent.
	ExportApplication(ctx context.Context) error
	// UnexportApplication removes the GATT tree and pairing agent.
	UnexportApplication(ctx context.Context) error
	// StartAdvertising registers the LE advertisement.
	StartAdvertising(ctx context.Context) error
	// StopAdvertising withdraws the LE advertisement.
	StopAdvertising(ctx context.Context) error
	// Devices lists devices known to the adapter.
	Devices(ctx context.Context) ([]DeviceInfo, error)
	// Connect initiates a connection to the given address.
	Connect(ctx context.Context, address string) error
	// Disconnect drops the link to the given address.
	Disconnect(ctx context.Context, address string) error
	// Trust marks the device trusted so BlueZ accepts its reconnects.
	Trust(ctx context.Context, address string) error
	// NotifyInputReport pushes an input report to subscribed hosts.
	NotifyInputReport(report []byte) error
	// Close releases the bus connection.
	Close() error
}

// bluezAdapter implements Adapter over the system D-Bus.
type bluezAdapter struct {
	conn        *dbus.Conn
	cfg         Config
	log         Logger
	tree        *serviceTree
	agent       *pairingAgent
	adapterPath dbus.ObjectPath
	advProps    *prop.Properties
}

// advertisement exports the org.bluez.LEAdvertisement1 Release method.
type advertisement struct{}

func (advertisement) Release() *dbus.Error { return nil }

// OpenAdapter connects to the system bus and prepares the GATT tree. The
// returned Adapter is passive until the peripheral drives it.
func OpenAdapter(cfg Config, buttons *buttonState, agent *pairingAgent, log Logger) (Adapter, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("ble: connect to system bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ble: list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == bluezBus {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("ble: org.bluez not on system bus, is bluetooth.service running?")
	}

	return &bluezAdapter{
		conn:        conn,
		cfg:         cfg,
		log:         log,
		tree:        buildTree(buttons, func() byte { return 100 }),
		agent:       agent,
		adapterPath: dbus.ObjectPath("/org/bluez/" + cfg.Adapter),
	}, nil
}

func (b *bluezAdapter) Setup(ctx context.Context) error {
	obj := b.conn.Object(bluezBus, b.adapterPath)
	props := map[string]interface{}{
		"Powered":             true,
		"Alias":               b.cfg.Name,
		"DiscoverableTimeout": uint32(0),
		"PairableTimeout":     uint32(0),
		"Discoverable":        true,
		"Pairable":            true,
	}
	// Ordering matters: the adapter must be powered before the rest stick.
	for _, name := range []string{"Powered", "Alias", "DiscoverableTimeout", "PairableTimeout", "Discoverable", "Pairable"} {
		call := obj.CallWithContext(ctx, propsIface+".Set", 0, adapterIface, name, dbus.MakeVariant(props[name]))
		if call.Err != nil {
			return fmt.Errorf("ble: set adapter %s: %w", name, call.Err)
		}
	}
	return nil
}

func (b *bluezAdapter) ExportApplication(ctx context.Context) error {
	if err := exportTree(b.conn, b.tree); err != nil {
		return err
	}
	if err := b.conn.Export(b.agent, agentPath, agentIface); err != nil {
		return fmt.Errorf("ble: export agent: %w", err)
	}

	mgr := b.conn.Object(bluezBus, "/org/bluez")
	if call := mgr.CallWithContext(ctx, agentManagerIface+".RegisterAgent", 0,
		dbus.ObjectPath(agentPath), "DisplayYesNo"); call.Err != nil {
		return fmt.Errorf("ble: register agent: %w", call.Err)
	}
	if call := mgr.CallWithContext(ctx, agentManagerIface+".RequestDefaultAgent", 0,
		dbus.ObjectPath(agentPath)); call.Err != nil {
		return fmt.Errorf("ble: request default agent: %w", call.Err)
	}

	gatt := b.conn.Object(bluezBus, b.adapterPath)
	if call := gatt.CallWithContext(ctx, gattManagerIface+".RegisterApplication", 0,
		dbus.ObjectPath(appPath), map[string]dbus.Variant{}); call.Err != nil {
		return fmt.Errorf("ble: register application: %w", call.Err)
	}
	return nil
}

func (b *bluezAdapter) UnexportApplication(ctx context.Context) error {
	var firstErr error
	record := func(err error) {
		if err != nil {
			b.log.Warn("teardown step failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	gatt := b.conn.Object(bluezBus, b.adapterPath)
	record(gatt.CallWithContext(ctx, gattManagerIface+".UnregisterApplication", 0,
		dbus.ObjectPath(appPath)).Err)

	mgr := b.conn.Object(bluezBus, "/org/bluez")
	record(mgr.CallWithContext(ctx, agentManagerIface+".UnregisterAgent", 0,
		dbus.ObjectPath(agentPath)).Err)

	record(b.conn.Export(nil, agentPath, agentIface))
	record(unexportTree(b.conn, b.tree))
	return firstErr
}

func (b *bluezAdapter) StartAdvertising(ctx context.Context) error {
	if err := b.conn.Export(advertisement{}, advPath, advIface); err != nil {
		return fmt.Errorf("ble: export advertisement: %w", err)
	}

	uuids := []string{uuidBatteryService, uuidDeviceInfo, uuidHIDService}
	advProps, err := prop.Export(b.conn, advPath, prop.Map{
		advIface: {
			"Type":         {Value: "peripheral", Emit: prop.EmitFalse},
			"ServiceUUIDs": {Value: uuids, Emit: prop.EmitFalse},
			"LocalName":    {Value: b.cfg.Name, Emit: prop.EmitFalse},
			"Appearance":   {Value: uint16(appearance), Emit: prop.EmitFalse},
		},
	})
	if err != nil {
		return fmt.Errorf("ble: export advertisement properties: %w", err)
	}
	b.advProps = advProps

	obj := b.conn.Object(bluezBus, b.adapterPath)
	if call := obj.CallWithContext(ctx, advManagerIface+".RegisterAdvertisement", 0,
		dbus.ObjectPath(advPath), map[string]dbus.Variant{}); call.Err != nil {
		return fmt.Errorf("ble: register advertisement: %w", call.Err)
	}
	return nil
}

func (b *bluezAdapter) StopAdvertising(ctx context.Context) error {
	obj := b.conn.Object(bluezBus, b.adapterPath)
	call := obj.CallWithContext(ctx, advManagerIface+".UnregisterAdvertisement", 0,
		dbus.ObjectPath(advPath))

	b.conn.Export(nil, advPath, advIface)
	b.conn.Export(nil, advPath, propsIface)
	b.advProps = nil

	if call.Err != nil {
		return fmt.Errorf("ble: unregister advertisement: %w", call.Err)
	}
	return nil
}

func (b *bluezAdapter) Devices(ctx context.Context) ([]DeviceInfo, error) {
	obj := b.conn.Object(bluezBus, "/")
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := obj.CallWithContext(ctx, objectManagerIface+".GetManagedObjects", 0).Store(&managed); err != nil {
		return nil, fmt.Errorf("ble: get managed objects: %w", err)
	}

	var devices []DeviceInfo
	for path, ifaces := range managed {
		dev, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		info := DeviceInfo{Path: string(path)}
		if v, ok := dev["Address"].Value().(string); ok {
			info.Address = v
		}
		if v, ok := dev["Name"].Value().(string); ok {
			info.Name = v
		}
		if v, ok := dev["Paired"].Value().(bool); ok {
			info.Paired = v
		}
		if v, ok := dev["Connected"].Value().(bool); ok {
			info.Connected = v
		}
		if v, ok := dev["Trusted"].Value().(bool); ok {
			info.Trusted = v
		}
		devices = append(devices, info)
	}
	return devices, nil
}

func (b *bluezAdapter) Connect(ctx context.Context, address string) error {
	obj := b.conn.Object(bluezBus, b.devicePath(address))
	if call := obj.CallWithContext(ctx, deviceIface+".Connect", 0); call.Err != nil {
		return fmt.Errorf("ble: connect %s: %w", address, call.Err)
	}
	return nil
}

func (b *bluezAdapter) Disconnect(ctx context.Context, address string) error {
	obj := b.conn.Object(bluezBus, b.devicePath(address))
	if call := obj.CallWithContext(ctx, deviceIface+".Disconnect", 0); call.Err != nil {
		return fmt.Errorf("ble: disconnect %s: %w", address, call.Err)
	}
	return nil
}

func (b *bluezAdapter) Trust(ctx context.Context, address string) error {
	obj := b.conn.Object(bluezBus, b.devicePath(address))
	call := obj.CallWithContext(ctx, propsIface+".Set", 0, deviceIface, "Trusted", dbus.MakeVariant(true))
	if call.Err != nil {
		return fmt.Errorf("ble: trust %s: %w", address, call.Err)
	}
	return nil
}

func (b *bluezAdapter) NotifyInputReport(report []byte) error {
	return notifyValue(b.conn, b.tree.inputReport.path, report)
}

func (b *bluezAdapter) Close() error {
	return b.conn.Close()
}

// devicePath converts "AA:BB:CC:DD:EE:FF" to the BlueZ object path under
// this adapter.
func (b *bluezAdapter) devicePath(address string) dbus.ObjectPath {
	escaped := strings.ReplaceAll(address, ":", "_")
	return dbus.ObjectPath(string(b.adapterPath) + "/dev_" + escaped)
}
