// Package rest provides ratelimiter ring nodes.
package rest

import (
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	ratelimiterv1 "github.com/discordnova/nova/internal/rest/gen/ratelimiter/v1"
)

// NodeDialer establishes a client connection to a replica target.
type NodeDialer func(target string) (*grpc.ClientConn, error)

func defaultNodeDialer(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// RingNode is one ratelimiter replica with an established RPC channel. The
// channel is safe for concurrent use, so handles can be shared freely once
// obtained from the ring.
type RingNode struct {
	Address string
	Port    int
	conn    *grpc.ClientConn
	client  ratelimiterv1.RatelimiterClient
}

// NewRingNode dials a replica and wraps the connection.
func NewRingNode(address string, port int, dial NodeDialer) (*RingNode, error) {
	if dial == nil {
		dial = defaultNodeDialer
	}
	target := net.JoinHostPort(address, strconv.Itoa(port))
	conn, err := dial(target)
	if err != nil {
		return nil, fmt.Errorf("dial ratelimiter node %s: %w", target, err)
	}
	return &RingNode{
		Address: address,
		Port:    port,
		conn:    conn,
		client:  ratelimiterv1.NewRatelimiterClient(conn),
	}, nil
}

// Key returns the ring membership identity for the node.
func (n *RingNode) Key() string {
	if n == nil {
		return ""
	}
	return net.JoinHostPort(n.Address, strconv.Itoa(n.Port))
}

// Client returns the typed RPC client.
func (n *RingNode) Client() ratelimiterv1.RatelimiterClient {
	if n == nil {
		return nil
	}
	return n.client
}

// Close tears down the RPC channel.
func (n *RingNode) Close() {
	if n == nil || n.conn == nil {
		return
	}
	_ = n.conn.Close()
}
