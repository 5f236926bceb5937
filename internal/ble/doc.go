// Package ble emulates a Bluetooth LE HID remote control.
//
// The hub registers a HID-over-GATT application with BlueZ over the system
// D-Bus, advertises as a remote control appliance and pushes input reports
// to the connected host. Pairing uses a DisplayYesNo agent so the user
// confirms the bond from the hub side.
//
// Shutdown is deliberate: tearing the GATT tree down while a bonded host
// is still connected makes some hosts (notably TV platforms) silently drop
// the bond. Shutdown therefore withdraws the advertisement, waits,
// disconnects locally, waits again and only then unexports the tree. The
// sequence is not cancellable once started.
package ble
