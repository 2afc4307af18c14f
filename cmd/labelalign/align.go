package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/exporter"
	"github.com/ddionrails/ddionrails-sub000/internal/importer"
	"github.com/ddionrails/ddionrails-sub000/internal/locale"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

type alignOptions struct {
	main   string
	lang   string
	pretty bool
}

// alignOutput 命令行输出；指定 --lang 时附带 display_labels
type alignOutput struct {
	*model.AlignedResult
	Language      locale.Language `json:"language,omitempty"`
	DisplayLabels []string        `json:"display_labels,omitempty"`
}

func newAlignCmd(a *app) *cobra.Command {
	opts := &alignOptions{}

	cmd := &cobra.Command{
		Use:   "align FILE",
		Short: "Align a result set file and print the aligned result as JSON",
		Example: `  labelalign align --main soep-core-v35-pl-plh0182 results.json
  labelalign align --main plh0182 --lang de --pretty labels.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.alignFile(args[0], opts.main)
			if err != nil {
				return err
			}

			out := alignOutput{AlignedResult: res}
			if opts.lang != "" {
				lang, ok := locale.Parse(opts.lang)
				if !ok {
					return fmt.Errorf("unsupported language %q", opts.lang)
				}
				out.Language = lang
				out.DisplayLabels = locale.Labels(res, lang)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if opts.pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&opts.main, "main", "", "主变量 ID")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "附加展示标签的语言 (en / de)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "缩进输出")
	_ = cmd.MarkFlagRequired("main")
	return cmd
}

type exportOptions struct {
	main  string
	out   string
	lang  string
	sheet string
}

func newExportCmd(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:     "export FILE",
		Short:   "Align a result set file and write the matrix to an xlsx workbook",
		Example: `  labelalign export --main plh0182 --out plh0182.xlsx --lang de results.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.alignFile(args[0], opts.main)
			if err != nil {
				return err
			}

			if opts.lang != "" {
				if _, ok := locale.Parse(opts.lang); !ok {
					return fmt.Errorf("unsupported language %q", opts.lang)
				}
			}
			lang := locale.Match(opts.lang, "", locale.Language(a.cfg.Export.Language))
			sheet := a.cfg.Export.SheetName
			if opts.sheet != "" {
				sheet = opts.sheet
			}
			if sheet, err = exporter.ValidateSheetName(sheet); err != nil {
				return err
			}

			if err := writeWorkbook(opts.out, res, exporter.Options{SheetName: sheet, Language: lang}); err != nil {
				return err
			}
			a.logger.Info("export written",
				zap.String("out", opts.out),
				zap.String("lang", string(lang)),
				zap.Int("labels", len(res.Labels)),
				zap.Int("variables", len(res.Variables)))
			fmt.Fprintln(cmd.OutOrStdout(), opts.out)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.main, "main", "", "主变量 ID")
	cmd.Flags().StringVar(&opts.out, "out", "", "输出 xlsx 路径")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "类别标签语言 (en / de，默认取配置 export.language)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "工作表名称 (默认取配置 export.sheet_name)")
	_ = cmd.MarkFlagRequired("main")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// alignFile 读取本地文件并对齐，不写数据库
func (a *app) alignFile(path, main string) (*model.AlignedResult, error) {
	rs, err := importer.ImportFile(path)
	if err != nil {
		return nil, err
	}
	if limit := a.cfg.Alignment.MaxVariables; limit > 0 && len(rs.Results) > limit {
		return nil, fmt.Errorf("%d > %d: %w", len(rs.Results), limit, importer.ErrTooManyVariables)
	}

	aligner := alignment.NewAligner(a.logger.Named("alignment"), nil)
	return aligner.Align(rs, strings.TrimSpace(main))
}

// writeWorkbook 写出工作簿，失败时删除不完整的文件
func writeWorkbook(path string, res *model.AlignedResult, opts exporter.Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return exporter.WriteXLSX(f, res, opts)
}
