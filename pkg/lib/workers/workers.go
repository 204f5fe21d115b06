package workers

import (
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Pool 基于 ants 的协程池，带 panic 恢复和完成等待
// 本模块自身不调度协程；并发共享、释放和派发的测试用它制造并发，嵌入方也可直接拿来跑派发
type Pool struct {
	pool       *ants.Pool
	wg         sync.WaitGroup
	panicCount atomic.Uint64
}

func NewPool(size int) (*Pool, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

// Submit 提交任务，recoverFun 可为 nil
func (p *Pool) Submit(fn func(), recoverFun func(err interface{})) error {
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		p.try(fn, recoverFun)
	})
	if err != nil {
		p.wg.Done()
	}
	return err
}

func (p *Pool) try(fn func(), reFun func(err interface{})) {
	defer func() {
		if err := recover(); err != nil {
			p.panicCount.Add(1)
			if reFun != nil {
				reFun(err)
			}
		}
	}()
	fn()
}

// Wait 等待所有已提交的任务完成
func (p *Pool) Wait() {
	p.wg.Wait()
}

// PanicCount 捕获到的 panic 次数
func (p *Pool) PanicCount() uint64 {
	return p.panicCount.Load()
}

// Release 关闭协程池
func (p *Pool) Release() {
	p.pool.Release()
}
