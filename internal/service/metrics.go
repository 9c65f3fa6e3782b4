package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	offersAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "negotiation_offers_accepted_total",
			Help: "Offers committed (created or resubmitted)",
		},
	)

	offersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_offers_rejected_total",
			Help: "Offers rejected before commit",
		},
		[]string{"reason"},
	)

	auctionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_auction_transitions_total",
			Help: "Reverse auction state transitions",
		},
		[]string{"transition"},
	)

	commitConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "negotiation_commit_conflicts_total",
			Help: "Negotiation commits that exhausted their retries",
		},
	)

	livePushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_live_pushes_total",
			Help: "Live channel pushes by outcome",
		},
		[]string{"event", "outcome"},
	)

	moderationFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_moderation_flags_total",
			Help: "Free-text writes flagged by moderation",
		},
		[]string{"reason"},
	)
)
