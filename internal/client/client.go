// Package client speaks the catalog protocol from the user's side. Each
// method mirrors one server handler field for field; the two must stay in
// lockstep or the session desynchronizes.
package client

import (
	"fmt"
	"io"

	"dev.c0redev.catalog/internal/proto"
	"dev.c0redev.catalog/internal/secure"
)

// Client is one session with the catalog server.
type Client struct {
	codec     *proto.Codec
	batchSize int
}

// New wraps an established connection with the session codec.
func New(conn io.ReadWriteCloser, engine *secure.Engine, batchSize int) *Client {
	return &Client{
		codec:     proto.NewCodec(proto.NewTransport(conn, engine)),
		batchSize: batchSize,
	}
}

// Close tears the session down without the EXIT exchange; use Exit for a
// clean end.
func (c *Client) Close() error { return c.codec.Transport().Shutdown() }

// Exit ends the session cleanly.
func (c *Client) Exit() error {
	if err := c.codec.SendCommand(proto.CommandExit); err != nil {
		return err
	}
	return c.Close()
}

// outcome reads a SUCCESS/FAILURE reply.
func (c *Client) outcome() (bool, error) {
	sig, err := c.codec.ReceiveSignal()
	if err != nil {
		return false, err
	}
	switch sig {
	case proto.SignalSuccess:
		return true, nil
	case proto.SignalFailure:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s instead of outcome", proto.ErrDesync, sig)
	}
}

func (c *Client) credentials(cmd proto.Command, username, password string) (bool, error) {
	if err := c.codec.SendCommand(cmd); err != nil {
		return false, err
	}
	if err := c.codec.SendString(username); err != nil {
		return false, err
	}
	if err := c.codec.SendString(password); err != nil {
		return false, err
	}
	return c.outcome()
}

// CreateUser registers a new account; the server logs it in on success.
func (c *Client) CreateUser(username, password string) (bool, error) {
	return c.credentials(proto.CommandCreateUser, username, password)
}

// Login authenticates an existing account.
func (c *Client) Login(username, password string) (bool, error) {
	return c.credentials(proto.CommandLogin, username, password)
}

// AddItem lists a new item and returns its server-assigned id on success.
func (c *Client) AddItem(data []byte, name string, cost float32, quantity int, tags []int) (int, bool, error) {
	if err := c.codec.SendCommand(proto.CommandAddItem); err != nil {
		return 0, false, err
	}
	if err := c.codec.SendBytes(data); err != nil {
		return 0, false, err
	}
	if err := c.codec.SendString(name); err != nil {
		return 0, false, err
	}
	if err := c.codec.SendFloat(cost); err != nil {
		return 0, false, err
	}
	if err := c.codec.SendInt(quantity); err != nil {
		return 0, false, err
	}
	if err := c.codec.SendByteList(tags); err != nil {
		return 0, false, err
	}
	ok, err := c.outcome()
	if err != nil || !ok {
		return 0, ok, err
	}
	id, err := c.codec.ReceiveInt()
	return id, true, err
}

// UpdateItem changes an item's cost and stocked quantity.
func (c *Client) UpdateItem(id int, cost float32, quantity int) (bool, error) {
	if err := c.codec.SendCommand(proto.CommandUpdateItem); err != nil {
		return false, err
	}
	if err := c.codec.SendInt(id); err != nil {
		return false, err
	}
	if err := c.codec.SendFloat(cost); err != nil {
		return false, err
	}
	if err := c.codec.SendInt(quantity); err != nil {
		return false, err
	}
	return c.outcome()
}

// DeleteItem removes an item and its stored blob.
func (c *Client) DeleteItem(id int) (bool, error) {
	if err := c.codec.SendCommand(proto.CommandDeleteItem); err != nil {
		return false, err
	}
	if err := c.codec.SendInt(id); err != nil {
		return false, err
	}
	return c.outcome()
}

// SearchByItem streams items ranked by similarity to the reference blob into
// sink and returns how many records arrived.
func (c *Client) SearchByItem(data []byte, name string, sink proto.Sink) (int, error) {
	if err := c.codec.SendCommand(proto.CommandSearchByItem); err != nil {
		return 0, err
	}
	if err := c.codec.SendBytes(data); err != nil {
		return 0, err
	}
	if err := c.codec.SendString(name); err != nil {
		return 0, err
	}
	return proto.NewStreamer(c.codec, c.batchSize).Receive(sink)
}

// BrowseByTags streams items carrying every given tag into sink.
func (c *Client) BrowseByTags(tags []int, sink proto.Sink) (int, error) {
	if err := c.codec.SendCommand(proto.CommandBrowseByTag); err != nil {
		return 0, err
	}
	if err := c.codec.SendByteList(tags); err != nil {
		return 0, err
	}
	return proto.NewStreamer(c.codec, c.batchSize).Receive(sink)
}

// BrowseAll streams the whole catalog into sink.
func (c *Client) BrowseAll(sink proto.Sink) (int, error) {
	if err := c.codec.SendCommand(proto.CommandBrowseAll); err != nil {
		return 0, err
	}
	return proto.NewStreamer(c.codec, c.batchSize).Receive(sink)
}
