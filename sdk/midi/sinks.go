package midi

import "github.com/leandrodaf/midiroute/sdk/contracts"

// PerByte returns a sink that forwards each received message one byte at a
// time, for hosts whose receive API takes single bytes.
func PerByte(fn func(b byte, sysEx bool)) contracts.Sink {
	return contracts.SinkFunc(func(msg contracts.Message) {
		for _, b := range msg.Data {
			fn(b, msg.SysEx)
		}
	})
}

// ChannelSink returns a sink that pushes messages onto ch without blocking
// the delivery goroutine. Messages are discarded with a warning when ch is full.
func ChannelSink(ch chan<- contracts.Message, log contracts.Logger) contracts.Sink {
	return contracts.SinkFunc(func(msg contracts.Message) {
		select {
		case ch <- msg:
		default:
			log.Warn("MIDI message channel is full; message discarded",
				log.Field().Int("length", len(msg.Data)),
				log.Field().Bool("sysex", msg.SysEx))
		}
	})
}
