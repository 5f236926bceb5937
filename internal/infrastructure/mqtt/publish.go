package mqtt

import (
	"fmt"
)

// Maximum payload size for published messages. Command payloads are tiny;
// anything near this limit is a caller bug.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the given topic and waits for broker
// acknowledgement (per the QoS level) up to the publish timeout.
//
// Retained should be true only for state topics, where a subscriber that
// connects later still wants the last value; events and command responses
// are never retained.
//
// Example:
//
//	topic := mqtt.Topics{}.Event("remote_button")
//	err := client.Publish(topic, []byte(`{"button":"power"}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message with the configured default
// QoS. Used for the hub's online-status and state topics.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
