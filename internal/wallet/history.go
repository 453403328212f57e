package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/address"
)

// History walks [max(0, latest-blocks+1), latest] in ascending order and stops after
// the block in which the hit limit is reached.
func (s *service) History(ctx context.Context, userID int64, blocks uint64) (*History, error) {
	if blocks == 0 {
		blocks = s.opts.HistoryBlocks
	}

	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.client.LatestBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	var start uint64
	if latest+1 > blocks {
		start = latest + 1 - blocks
	}

	log := util.LogFromContext(ctx).With().
		Str("address", account.Address.Hex()).
		Uint64("from_block", start).
		Uint64("to_block", latest).
		Logger()
	log.Debug().Msg("Scanning blocks for account history")

	result := &History{
		Address:   account.Address,
		FromBlock: start,
		ToBlock:   latest,
		LastBlock: latest,
	}

	for n := start; n <= latest; n++ {
		block, err := s.client.Block(ctx, n, true)
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Transactions {
			if involves(tx.From, tx.To, account.Address) {
				result.Hashes = append(result.Hashes, tx.Hash)
			}
		}

		if len(result.Hashes) >= s.opts.HistoryMaxHits {
			result.LastBlock = n
			result.Hashes = result.Hashes[:s.opts.HistoryMaxHits]
			break
		}
	}

	log.Debug().Int("hits", len(result.Hashes)).Msg("History scan finished")

	return result, nil
}

func involves(from common.Address, to *common.Address, account common.Address) bool {
	if address.SameAddress(from, account) {
		return true
	}
	return to != nil && address.SameAddress(*to, account)
}
