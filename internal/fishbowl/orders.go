package fishbowl

import (
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/records"
	"github.com/danmuck/fishbowl/internal/session"
)

// GetSO loads a sales order by number. It returns nil without error when
// the response holds no sales order.
func (c *Client) GetSO(number string) (*records.Record, error) {
	node, err := c.sess.SendRequest(session.Call{
		Name:         "LoadSORq",
		Value:        codec.Fields{{Name: "Number", Value: number}},
		ResponseNode: "LoadSORs",
	})
	if err != nil {
		return nil, err
	}
	if node == nil || node.Tag != records.SalesOrder.Name {
		return nil, nil
	}
	return records.FromNode(records.SalesOrder, node), nil
}

// SaveSO saves so and returns the order as stored by the server.
func (c *Client) SaveSO(so *records.Record) (*records.Record, error) {
	root, err := c.send(codec.SaveSORequest(c.sess.Key(), so))
	if err != nil {
		return nil, err
	}
	if err := checkAll(root, "//SOSaveRs"); err != nil {
		return nil, err
	}
	node := root.FindElement("//" + records.SalesOrder.Name)
	if node == nil {
		return nil, missing(records.SalesOrder.Name)
	}
	return records.FromNode(records.SalesOrder, node), nil
}

// AddMemo attaches a memo to a record, signed with the session's user.
func (c *Client) AddMemo(itemType, itemNum, memo string) error {
	req, err := codec.AddMemoRequest(c.sess.Key(), itemType, itemNum, memo, c.sess.Username())
	if err != nil {
		return err
	}
	root, err := c.send(req)
	if err != nil {
		return err
	}
	return checkAll(root, "//AddMemoRs")
}
