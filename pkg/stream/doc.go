// Package stream pushes the latest device metrics to WebSocket clients.
//
// Clients connect to the stream endpoint and subscribe to channels:
//
//	{"type": "subscribe", "channel": "device:0"}
//	{"type": "subscribe", "channel": "devices"}
//
// "device:<id>" carries the metrics report of one device; "devices"
// carries every device. The Publisher refreshes the reports every
// interval and the Hub fans them out. Slow clients whose send buffer
// fills up are disconnected.
package stream
