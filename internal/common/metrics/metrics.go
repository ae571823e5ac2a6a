package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TonRequests counts outbound toncenter API calls by method and outcome
	// (ok, http_error, network_error, bad_shape).
	TonRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ton_api_requests_total",
			Help: "Outbound TON RPC calls by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// SeqnoCacheHits counts seqno reads served from the in-memory cache.
	SeqnoCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seqno_cache_hits_total",
			Help: "Masterchain seqno reads served without an upstream call.",
		},
	)

	// SeqnoCacheRefreshes counts upstream seqno refresh attempts.
	SeqnoCacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqno_cache_refreshes_total",
			Help: "Masterchain seqno refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// TelegramRequests counts outbound Bot API calls by method and outcome.
	TelegramRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_api_requests_total",
			Help: "Outbound Telegram Bot API calls by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// BotUpdates counts processed updates by kind (command, callback, web_app_data, other).
	BotUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Telegram updates processed by kind.",
		},
		[]string{"kind"},
	)

	// StatusLookups counts end-to-end NFT status lookups by result class.
	StatusLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nft_status_lookups_total",
			Help: "NFT status lookups by result (minted, not_minted, error).",
		},
		[]string{"result"},
	)
)
