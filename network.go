package milesight

import (
	"context"
)

const (
	packetForwarderPath       = "/api/packet-forwarder/network-servers"
	networkServerSettingsPath = "/api/network-server/settings"
)

// PacketForwarder retrieves the packet forwarder configuration and the
// number of network servers (the "servs" list) it forwards to.
func (c *Client) PacketForwarder(ctx context.Context) (Record, int, error) {
	var doc Record
	if err := c.lookup(ctx, "packet forwarder", packetForwarderPath, nil, nil, &doc); err != nil {
		return nil, 0, err
	}

	servers, _ := doc["servs"].([]any)
	return doc, len(servers), nil
}

// NetworkServerSettings retrieves the settings of the embedded network server.
func (c *Client) NetworkServerSettings(ctx context.Context) (Record, error) {
	var doc Record
	if err := c.lookup(ctx, "network server settings", networkServerSettingsPath, nil, nil, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}
