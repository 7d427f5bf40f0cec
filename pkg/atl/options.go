package atl

import (
	"fmt"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// Options 口型动画脚本的生成参数
type Options struct {
	ImageName           string  // ATL图像名
	OpenImage           string  // 张嘴图片路径
	ClosedImage         string  // 闭嘴图片路径
	FrameDuration       float64 // 名义帧长（秒）
	Indent              int     // 缩进空格数
	Verbose             bool    // 详细注释
	ConfidenceThreshold float64 // 平均置信度低于该值时在头部标记(!)
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{
		FrameDuration:       0.2,
		Indent:              4,
		ConfidenceThreshold: 0.5,
	}
}

// NewOptions 根据配置构造生成参数；未开启完整路径时图片路径截断到图片根目录
func NewOptions(cfg *models.Config, imageName, openImage, closedImage string) (Options, error) {
	opts := Options{
		ImageName:           imageName,
		OpenImage:           openImage,
		ClosedImage:         closedImage,
		FrameDuration:       cfg.FrameDuration,
		Indent:              cfg.Indent,
		Verbose:             cfg.VerboseAnnotations,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}

	if !cfg.FullImagePath {
		var err error
		if opts.OpenImage, err = TruncatePath(openImage, cfg.ImageRoot); err != nil {
			return Options{}, err
		}
		if opts.ClosedImage, err = TruncatePath(closedImage, cfg.ImageRoot); err != nil {
			return Options{}, err
		}
	}

	return opts, opts.validate()
}

func (o Options) validate() error {
	switch {
	case o.ImageName == "":
		return utils.NewKindError(utils.ErrInvalidInput, "图像名不能为空", nil)
	case o.OpenImage == "" || o.ClosedImage == "":
		return utils.NewKindError(utils.ErrInvalidInput, "必须同时指定张嘴与闭嘴图片", nil)
	case o.OpenImage == o.ClosedImage:
		return utils.NewKindError(utils.ErrInvalidInput, "张嘴与闭嘴图片不能相同", nil)
	case o.FrameDuration <= 0:
		return utils.NewKindError(utils.ErrInvalidInput, fmt.Sprintf("帧长必须为正数: %v", o.FrameDuration), nil)
	case o.Indent < 0:
		return utils.NewKindError(utils.ErrInvalidInput, "缩进不能为负数", nil)
	}
	return nil
}

// TruncatePath 把图片路径截断为从 parent 目录开始的相对路径，统一使用正斜杠。
// 例如 /home/me/game/images/eileen/open.png -> images/eileen/open.png
func TruncatePath(path, parent string) (string, error) {
	slashed := strings.ReplaceAll(path, `\`, "/")

	idx := strings.Index(slashed, parent)
	if parent == "" || idx < 0 {
		return "", utils.NewKindError(utils.ErrInvalidInput,
			fmt.Sprintf("无法把 %s 截断到 %s", path, parent), nil)
	}
	return slashed[idx:], nil
}
