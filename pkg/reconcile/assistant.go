package reconcile

import "context"

// Assistant 人工校对能力：接收比对表，返回修改后的比对表。
// 实现方可以通过在短语中插入 Marker 把不一致的短语拆成并列子组，
// 两侧子组按顺序一一对应。
type Assistant interface {
	Correct(ctx context.Context, alignment Alignment) (Alignment, error)
}

// AssistantFunc 让普通函数满足 Assistant 接口
type AssistantFunc func(ctx context.Context, alignment Alignment) (Alignment, error)

// Correct 调用函数本身
func (f AssistantFunc) Correct(ctx context.Context, alignment Alignment) (Alignment, error) {
	return f(ctx, alignment)
}
