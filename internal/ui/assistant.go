package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/reconcile"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// 校对时的特殊输入
const (
	keepInput  = ""  // 保留原值
	clearInput = "-" // 清空该列
	quitInput  = "q" // 放弃校对
)

// TerminalAssistant 在终端中逐行校对比对表。
// 每个未匹配的行依次询问文本列与时间列，用 "/" 把两列切成数量相同的子组
type TerminalAssistant struct {
	in  io.Reader
	out io.Writer

	mu       sync.Mutex // 同一时间只进行一次校对
	once     sync.Once
	lines    chan string
	readErrs chan error

	header  *color.Color
	textCol *color.Color
	timeCol *color.Color
	warning *color.Color
}

// NewTerminalAssistant 创建终端校对程序
func NewTerminalAssistant(in io.Reader, out io.Writer) *TerminalAssistant {
	return &TerminalAssistant{
		in:      in,
		out:     out,
		header:  color.New(color.FgYellow, color.Bold),
		textCol: color.New(color.FgGreen),
		timeCol: color.New(color.FgCyan),
		warning: color.New(color.FgRed),
	}
}

// Correct 实现 reconcile.Assistant
func (a *TerminalAssistant) Correct(ctx context.Context, alignment reconcile.Alignment) (reconcile.Alignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := alignment.Rows()
	if err != nil {
		return reconcile.Alignment{}, err
	}

	a.printTable(rows)
	a.header.Fprintf(a.out, "用前后带空格的 %q 把两列切成数量相同的子组；回车保留原值，%q 清空，%q 放弃\n",
		reconcile.Marker, clearInput, quitInput)

	for i := range rows {
		row := &rows[i]
		if row.TextOnly == "" && row.TimingOnly == "" {
			continue
		}

		a.header.Fprintf(a.out, "\n[%d/%d] 匹配: %s\n", i+1, len(rows), row.Matched)

		text, err := a.ask(ctx, a.textCol, "文本", row.TextOnly)
		if err != nil {
			return reconcile.Alignment{}, err
		}
		timing, err := a.ask(ctx, a.timeCol, "时间", row.TimingOnly)
		if err != nil {
			return reconcile.Alignment{}, err
		}

		row.TextOnly, row.TimingOnly = text, timing
	}

	return reconcile.NewAlignment(rows), nil
}

// ask 询问一列的新值
func (a *TerminalAssistant) ask(ctx context.Context, c *color.Color, label, current string) (string, error) {
	c.Fprintf(a.out, "  %s: %s\n", label, current)
	fmt.Fprintf(a.out, "  新的%s列> ", label)

	line, err := a.readLine(ctx)
	if err != nil {
		return "", err
	}

	switch strings.TrimSpace(line) {
	case keepInput:
		return current, nil
	case clearInput:
		return "", nil
	case quitInput:
		return "", utils.NewKindError(utils.ErrUnresolved, "用户放弃了校对", nil)
	default:
		return strings.TrimSpace(line), nil
	}
}

// readLine 读取一行输入，ctx 取消时立即返回
func (a *TerminalAssistant) readLine(ctx context.Context) (string, error) {
	a.once.Do(func() {
		a.lines = make(chan string)
		a.readErrs = make(chan error, 1)
		go func() {
			scanner := bufio.NewScanner(a.in)
			for scanner.Scan() {
				a.lines <- scanner.Text()
			}
			err := scanner.Err()
			if err == nil {
				err = io.EOF
			}
			a.readErrs <- err
		}()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-a.lines:
		return line, nil
	case err := <-a.readErrs:
		// 让后续读取得到同样的错误
		a.readErrs <- err
		return "", fmt.Errorf("读取校对输入失败: %w", err)
	}
}

// printTable 打印整张比对表
func (a *TerminalAssistant) printTable(rows []reconcile.Row) {
	a.header.Fprintln(a.out, "两路识别结果无法自动对齐，请校对:")
	for i, row := range rows {
		marker := " "
		if row.TextOnly != "" || row.TimingOnly != "" {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %3d | ", marker, i+1)
		a.textCol.Fprintf(a.out, "%s", row.TextOnly)
		fmt.Fprint(a.out, " | ")
		a.timeCol.Fprintf(a.out, "%s", row.TimingOnly)
		fmt.Fprintf(a.out, " | %s\n", row.Matched)
	}
}
