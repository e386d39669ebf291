package cluster

import (
	"encoding/json"
	"log"

	"github.com/hashicorp/memberlist"
)

// StatusDelegate is notified of every pool status change received over
// gossip, after the Table has been updated. The dispatcher does not
// consult pool status when sending sub-batches.
type StatusDelegate interface {
	NotifyPoolStatus(poolID uint16, status int)
}

// MembershipConfig configures the gossip layer used to track which
// pools are alive.
type MembershipConfig struct {
	BindAddr string
	BindPort int
	PoolID   uint16
}

func (c *MembershipConfig) setDefaults() {
	if c.BindPort == 0 {
		c.BindPort = 8084
	}
}

// Membership gossips pool liveness across the cluster using
// memberlist. It applies pool status messages received over gossip to a
// Table and optionally notifies a StatusDelegate. Node join and leave
// events are not applied to the Table.
type Membership struct {
	list     *memberlist.Memberlist
	table    *Table
	delegate StatusDelegate
	local    uint16
}

// NewMembership starts gossiping on the configured address. It does not
// add the local pool to table.
func NewMembership(config MembershipConfig, table *Table, delegate StatusDelegate) (*Membership, error) {
	config.setDefaults()
	m := &Membership{table: table, delegate: delegate, local: config.PoolID}

	conf := memberlist.DefaultLANConfig()
	conf.BindAddr = config.BindAddr
	conf.BindPort = config.BindPort
	conf.Events = membershipEvents{m}
	conf.Delegate = membershipDelegate{m}

	log.Printf("[cluster] gossip listening on %s:%d", conf.BindAddr, conf.BindPort)
	list, err := memberlist.Create(conf)
	if err != nil {
		return nil, err
	}
	m.list = list
	return m, nil
}

// Join contacts one or more seed addresses to join the gossip ring.
func (m *Membership) Join(seeds []string) error {
	_, err := m.list.Join(seeds)
	return err
}

// Shutdown leaves the gossip ring.
func (m *Membership) Shutdown() error {
	return m.list.Shutdown()
}

type poolGossip struct {
	PoolID uint16
	Status int
}

func (m *Membership) applyUpdate(data []byte) {
	var g poolGossip
	if err := json.Unmarshal(data, &g); err != nil {
		log.Printf("[cluster] dropped malformed gossip message: %s", err)
		return
	}
	m.table.UpdateStatus(g.PoolID, g.Status)
	if m.delegate != nil {
		m.delegate.NotifyPoolStatus(g.PoolID, g.Status)
	}
}

type membershipEvents struct{ m *Membership }

func (e membershipEvents) NotifyJoin(n *memberlist.Node)   {}
func (e membershipEvents) NotifyLeave(n *memberlist.Node)  {}
func (e membershipEvents) NotifyUpdate(n *memberlist.Node) {}

type membershipDelegate struct{ m *Membership }

func (d membershipDelegate) NodeMeta(limit int) []byte { return []byte{} }

func (d membershipDelegate) NotifyMsg(msg []byte) {
	d.m.applyUpdate(msg)
}

func (d membershipDelegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }
func (d membershipDelegate) LocalState(join bool) []byte                { return []byte{} }
func (d membershipDelegate) MergeRemoteState(buf []byte, join bool)      {}
