package ble

// BlueZ bus names and interfaces.
const (
	bluezBus     = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	deviceIface  = "org.bluez.Device1"

	gattManagerIface = "org.bluez.GattManager1"
	gattServiceIface = "org.bluez.GattService1"
	gattCharIface    = "org.bluez.GattCharacteristic1"
	gattDescIface    = "org.bluez.GattDescriptor1"

	advManagerIface = "org.bluez.LEAdvertisingManager1"
	advIface        = "org.bluez.LEAdvertisement1"

	agentManagerIface = "org.bluez.AgentManager1"
	agentIface        = "org.bluez.Agent1"

	propsIface         = "org.freedesktop.DBus.Properties"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
)

// Object paths exported by the hub.
const (
	appPath   = "/me/wehrfritz/equilibrium"
	advPath   = "/me/wehrfritz/equilibrium/advertisement"
	agentPath = "/me/wehrfritz/equilibrium/agent"
)

// GATT service and characteristic UUIDs (16-bit, Bluetooth SIG assigned).
const (
	uuidHIDService       = "00001812-0000-1000-8000-00805f9b34fb"
	uuidHIDInformation   = "00002a4a-0000-1000-8000-00805f9b34fb"
	uuidReportMap        = "00002a4b-0000-1000-8000-00805f9b34fb"
	uuidHIDControlPoint  = "00002a4c-0000-1000-8000-00805f9b34fb"
	uuidReport           = "00002a4d-0000-1000-8000-00805f9b34fb"
	uuidProtocolMode     = "00002a4e-0000-1000-8000-00805f9b34fb"
	uuidReportReference  = "00002908-0000-1000-8000-00805f9b34fb"
	uuidBatteryService   = "0000180f-0000-1000-8000-00805f9b34fb"
	uuidBatteryLevel     = "00002a19-0000-1000-8000-00805f9b34fb"
	uuidDeviceInfo       = "0000180a-0000-1000-8000-00805f9b34fb"
	uuidManufacturerName = "00002a29-0000-1000-8000-00805f9b34fb"
	uuidModelNumber      = "00002a24-0000-1000-8000-00805f9b34fb"
	uuidPnPID            = "00002a50-0000-1000-8000-00805f9b34fb"
)

// appearance is the advertised GAP appearance: HID remote control.
const appearance = 0x03c1

// Device information presented to hosts.
const (
	manufacturerName = "Equilibrium"
	modelNumber      = "Hub Remote"
)
