package sink

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	mdns "github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
)

// RuleTopic is the gossipsub topic emitted rules are announced on.
const RuleTopic = "ruleminer/rules/1"

// PubSubSink gossips each emitted rule line to a libp2p pubsub topic,
// adapted from the block-gossip wiring used elsewhere in this codebase:
// same NewGossipSub/topic-subscribe/mDNS-discovery shape, aimed at a rule
// announcement topic instead of a block topic.
type PubSubSink struct {
	host  host.Host
	ps    *pubsub.PubSub
	topic *pubsub.Topic
}

// NewPubSubSink starts a libp2p host listening on port, joins RuleTopic,
// enables mDNS discovery, and optionally dials a known peer multiaddr.
func NewPubSubSink(ctx context.Context, port int, peerMultiaddr string) (*PubSubSink, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(
		fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", port),
	))
	if err != nil {
		return nil, fmt.Errorf("sink: libp2p host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("sink: gossipsub: %w", err)
	}

	topic, err := ps.Join(RuleTopic)
	if err != nil {
		return nil, fmt.Errorf("sink: join topic: %w", err)
	}

	notifee := &mdnsNotifee{}
	if err := mdns.NewMdnsService(h, "ruleminer-mdns", notifee).Start(); err != nil {
		log.Printf("[SINK] mDNS discovery unavailable: %v", err)
	}

	s := &PubSubSink{host: h, ps: ps, topic: topic}

	if peerMultiaddr != "" {
		addr, err := ma.NewMultiaddr(peerMultiaddr)
		if err != nil {
			return nil, fmt.Errorf("sink: invalid multiaddr: %w", err)
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			return nil, fmt.Errorf("sink: invalid addrinfo: %w", err)
		}
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := h.Connect(dialCtx, *info); err != nil {
			log.Printf("[SINK] failed to connect to peer %s: %v", peerMultiaddr, err)
		}
	}

	return s, nil
}

func (s *PubSubSink) WriteLine(line string) error {
	if len(s.host.Network().Peers()) == 0 {
		// No subscribers yet; still publish so late joiners relying on
		// gossipsub's mesh backfill are not starved, but avoid failing the
		// mining loop over a transient empty mesh.
	}
	return s.topic.Publish(context.Background(), []byte(line))
}

func (s *PubSubSink) Flush() error { return nil }

func (s *PubSubSink) Close() error {
	s.topic.Close()
	return s.host.Close()
}

type mdnsNotifee struct{}

func (n *mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	log.Printf("[SINK] mDNS discovered peer: %s", info.ID.String())
}
