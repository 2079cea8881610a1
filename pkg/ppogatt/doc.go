// Package ppogatt implements Pebble Protocol over GATT, a reliable in-order
// transport on top of an unacknowledged BLE GATT channel.
package ppogatt

// The lower side is a Driver which sends frames with WRITE COMMAND or NOTIFY
// and hands inbound frames over from its own callback context. Neither
// direction is acknowledged by the radio, so PPoGATT carries its own
// acknowledgements inside the frame header:
//
//   data[7:0] = {seq[4:0], cmd[2:0]}
//
// A DATA frame is acknowledged with an ACK carrying the same sequence. When a
// frame in the sequence is missing, no ACK is sent until it is retransmitted.
// RESET_REQ and RESET_ACK restart the sequence space in both directions.
//
// Producer: PPoGATT peer (phone or watch)
// Consumer: Pebble Protocol layer
