// Package irstore persists learned IR codes.
//
// Codes are keyed by device and name so a scene can refer to
// "living_room_tv/power" without caring how or when the code was learned.
// Timing sequences are stored in the same space-separated decimal form the
// library exchange format uses, which keeps rows readable in a SQL shell.
package irstore
