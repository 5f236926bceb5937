package ble

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// descriptor is one GATT descriptor node.
type descriptor struct {
	path  dbus.ObjectPath
	char  dbus.ObjectPath
	uuid  string
	flags []string
	read  func() []byte
}

// characteristic is one GATT characteristic node.
type characteristic struct {
	path    dbus.ObjectPath
	service dbus.ObjectPath
	uuid    string
	flags   []string
	read    func() []byte
	write   func([]byte)
	descs   []*descriptor
}

// service is one primary GATT service node.
type service struct {
	path  dbus.ObjectPath
	uuid  string
	chars []*characteristic
}

// serviceTree is the full GATT application. Paths are assigned once at
// construction and never change, which keeps CCCD state valid on the host
// across reconnects.
type serviceTree struct {
	services []*service
	// inputReport is the characteristic notifications are pushed on.
	inputReport *characteristic
}

// buildTree assembles the HID, battery and device-information services.
func buildTree(buttons *buttonState, batteryLevel func() byte) *serviceTree {
	t := &serviceTree{}

	hid := t.addService(uuidHIDService)
	t.addChar(hid, uuidHIDInformation, []string{"read"},
		func() []byte { return hidInformation }, nil)
	t.addChar(hid, uuidReportMap, []string{"read"},
		func() []byte { return reportMap }, nil)
	t.addChar(hid, uuidHIDControlPoint, []string{"write-without-response"},
		nil, func([]byte) {})
	input := t.addChar(hid, uuidReport, []string{"secure-read", "notify"},
		buttons.report, nil)
	t.addDesc(input, uuidReportReference, []string{"read"},
		func() []byte { return []byte{reportID, 0x01} })
	t.addChar(hid, uuidProtocolMode, []string{"read", "write-without-response"},
		func() []byte { return []byte{0x01} }, func([]byte) {})
	t.inputReport = input

	battery := t.addService(uuidBatteryService)
	t.addChar(battery, uuidBatteryLevel, []string{"read", "notify"},
		func() []byte { return []byte{batteryLevel()} }, nil)

	info := t.addService(uuidDeviceInfo)
	t.addChar(info, uuidManufacturerName, []string{"read"},
		func() []byte { return []byte(manufacturerName) }, nil)
	t.addChar(info, uuidModelNumber, []string{"read"},
		func() []byte { return []byte(modelNumber) }, nil)
	// PnP ID: USB vendor source, placeholder vendor/product, version 1.0.
	t.addChar(info, uuidPnPID, []string{"read"},
		func() []byte { return []byte{0x02, 0x5e, 0x04, 0x01, 0x00, 0x00, 0x01} }, nil)

	return t
}

func (t *serviceTree) addService(uuid string) *service {
	s := &service{
		path: dbus.ObjectPath(fmt.Sprintf("%s/service%d", appPath, len(t.services))),
		uuid: uuid,
	}
	t.services = append(t.services, s)
	return s
}

func (t *serviceTree) addChar(s *service, uuid string, flags []string, read func() []byte, write func([]byte)) *characteristic {
	c := &characteristic{
		path:    dbus.ObjectPath(fmt.Sprintf("%s/char%d", s.path, len(s.chars))),
		service: s.path,
		uuid:    uuid,
		flags:   flags,
		read:    read,
		write:   write,
	}
	s.chars = append(s.chars, c)
	return c
}

func (t *serviceTree) addDesc(c *characteristic, uuid string, flags []string, read func() []byte) *descriptor {
	d := &descriptor{
		path:  dbus.ObjectPath(fmt.Sprintf("%s/desc%d", c.path, len(c.descs))),
		char:  c.path,
		uuid:  uuid,
		flags: flags,
		read:  read,
	}
	c.descs = append(c.descs, d)
	return d
}

// managedObjects renders the tree in the shape BlueZ expects from
// org.freedesktop.DBus.ObjectManager.GetManagedObjects.
func (t *serviceTree) managedObjects() map[dbus.ObjectPath]map[string]map[string]dbus.Variant {
	out := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	for _, s := range t.services {
		out[s.path] = map[string]map[string]dbus.Variant{
			gattServiceIface: {
				"UUID":    dbus.MakeVariant(s.uuid),
				"Primary": dbus.MakeVariant(true),
			},
		}
		for _, c := range s.chars {
			out[c.path] = map[string]map[string]dbus.Variant{
				gattCharIface: {
					"UUID":    dbus.MakeVariant(c.uuid),
					"Service": dbus.MakeVariant(c.service),
					"Flags":   dbus.MakeVariant(c.flags),
				},
			}
			for _, d := range c.descs {
				out[d.path] = map[string]map[string]dbus.Variant{
					gattDescIface: {
						"UUID":           dbus.MakeVariant(d.uuid),
						"Characteristic": dbus.MakeVariant(d.char),
						"Flags":          dbus.MakeVariant(d.flags),
					},
				}
			}
		}
	}
	return out
}

// objectManager serves GetManagedObjects for the application root.
type objectManager struct {
	tree *serviceTree
}

func (o *objectManager) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	return o.tree.managedObjects(), nil
}

// charHandler exports org.bluez.GattCharacteristic1 for one node.
type charHandler struct {
	c *characteristic
}

func (h *charHandler) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	if h.c.read == nil {
		return nil, dbus.NewError("org.bluez.Error.NotPermitted", nil)
	}
	return h.c.read(), nil
}

func (h *charHandler) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	if h.c.write == nil {
		return dbus.NewError("org.bluez.Error.NotPermitted", nil)
	}
	h.c.write(value)
	return nil
}

func (h *charHandler) StartNotify() *dbus.Error { return nil }
func (h *charHandler) StopNotify() *dbus.Error  { return nil }

// descHandler exports org.bluez.GattDescriptor1 for one node.
type descHandler struct {
	d *descriptor
}

func (h *descHandler) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return h.d.read(), nil
}

// exportTree registers the ObjectManager and every node on the bus.
func exportTree(conn *dbus.Conn, tree *serviceTree) error {
	if err := conn.Export(&objectManager{tree: tree}, appPath, objectManagerIface); err != nil {
		return fmt.Errorf("ble: export object manager: %w", err)
	}
	for _, s := range tree.services {
		for _, c := range s.chars {
			if err := conn.Export(&charHandler{c: c}, c.path, gattCharIface); err != nil {
				return fmt.Errorf("ble: export characteristic %s: %w", c.uuid, err)
			}
			for _, d := range c.descs {
				if err := conn.Export(&descHandler{d: d}, d.path, gattDescIface); err != nil {
					return fmt.Errorf("ble: export descriptor %s: %w", d.uuid, err)
				}
			}
		}
	}
	return nil
}

// unexportTree removes every exported node.
func unexportTree(conn *dbus.Conn, tree *serviceTree) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range tree.services {
		for _, c := range s.chars {
			for _, d := range c.descs {
				record(conn.Export(nil, d.path, gattDescIface))
			}
			record(conn.Export(nil, c.path, gattCharIface))
		}
	}
	record(conn.Export(nil, appPath, objectManagerIface))
	return firstErr
}

// notifyValue pushes a characteristic value change to subscribed hosts.
func notifyValue(conn *dbus.Conn, path dbus.ObjectPath, value []byte) error {
	return conn.Emit(path, propsIface+".PropertiesChanged",
		gattCharIface,
		map[string]dbus.Variant{"Value": dbus.MakeVariant(value)},
		[]string{},
	)
}
