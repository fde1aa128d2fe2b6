package content

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// seedTimeout は1回のシード実行に許す時間。呼び出し元のキャンセルとは独立に適用する。
const seedTimeout = 30 * time.Second

// SeedGuard はシードをプロセス内で一度だけ成功させるためのラッチ。
// 並行する呼び出しは実行中の1回を共有する。失敗した場合はラッチを戻し、次の呼び出しで再試行する。
type SeedGuard struct {
	run   func(ctx context.Context) error
	group singleflight.Group
	done  atomic.Bool
}

// NewSeedGuard はrunを保護するSeedGuardを生成する。
func NewSeedGuard(run func(ctx context.Context) error) *SeedGuard {
	return &SeedGuard{run: run}
}

// Ensure はシードが成功済みであることを保証する。
// 実行中のシードがあれば完了を待ち、ctxが先に終了した場合はctx.Err()を返す。
// 待機側がキャンセルしても実行中のシードは継続する。
func (g *SeedGuard) Ensure(ctx context.Context) error {
	if g.done.Load() {
		return nil
	}

	ch := g.group.DoChan("seed", func() (any, error) {
		if g.done.Load() {
			return nil, nil
		}
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), seedTimeout)
		defer cancel()
		if err := g.run(runCtx); err != nil {
			return nil, err
		}
		g.done.Store(true)
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done はシードが成功済みかどうかを返す。
func (g *SeedGuard) Done() bool {
	return g.done.Load()
}
