package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/StreakKeeper/internal/bootstrap"
	"github.com/yuqie6/StreakKeeper/internal/pkg/buildinfo"
	"github.com/yuqie6/StreakKeeper/internal/pkg/config"
	"github.com/yuqie6/StreakKeeper/internal/service"
)

var (
	cfgFile    string
	jsonOutput bool
	core       *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streak",
		Short: "StreakKeeper - 每日连续打卡与活动积分",
		Long:  `StreakKeeper 根据活动元信息计算权重与经验值，并维护用户的连续打卡天数（保护盾、凌晨宽限、里程碑）。不记录活动内容。`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "以 JSON 输出")

	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(shieldCmd())
	rootCmd.AddCommand(weightCmd())
	rootCmd.AddCommand(milestonesCmd())
	rootCmd.AddCommand(rewardsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withCore 需要数据库的命令统一走这里
func withCore(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var err error
		core, err = bootstrap.NewCore(cfgFile)
		if err != nil {
			slog.Error("初始化失败", "error", err)
			return err
		}
		defer core.Close()
		return run(cmd, args)
	}
}

// logCmd 记录一次活动
func logCmd() *cobra.Command {
	var (
		userID   string
		timezone string
		meta     service.ActivityMetadata
		score    float64
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "记录一次活动并更新连续天数",
		RunE: withCore(func(cmd *cobra.Command, args []string) error {
			if err := core.DB.RequireWritable(); err != nil {
				return err
			}
			if cmd.Flags().Changed("score") {
				meta.CompletionScore = &score
			}

			var res *service.IngestionResult
			err := service.RetryOnConflict(cmd.Context(), core.Cfg.Streak.ConflictRetries, func(ctx context.Context) error {
				var err error
				res, err = core.Services.Streaks.ProcessActivity(ctx, userID, timezone, meta)
				return err
			})
			if err != nil {
				fmt.Printf("❌ 记录活动失败: %v\n", err)
				return err
			}

			if jsonOutput {
				return printJSON(res)
			}
			fmt.Printf("✅ %s\n", res.Message)
			fmt.Printf("  • 状态: %s\n", res.Status)
			fmt.Printf("  • 连续天数: %d（最长 %d）\n", res.StreakDays, res.LongestStreak)
			fmt.Printf("  • 权重: %.2f  经验: +%d\n", res.Weight, res.XPEarned)
			fmt.Printf("  • 累计积分: %.2f\n", res.TotalActivityPoints)
			if res.Milestone != nil {
				fmt.Printf("🏆 里程碑: %s (%d 天)\n", res.Milestone.Title, res.Milestone.Days)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "用户 ID")
	cmd.Flags().StringVar(&timezone, "tz", "", "用户时区（IANA 名称或 +08:00）")
	cmd.Flags().StringVarP(&meta.Type, "type", "t", "", "活动类型")
	cmd.Flags().IntVarP(&meta.DurationSeconds, "duration", "d", 0, "时长（秒）")
	cmd.Flags().Float64Var(&score, "score", 50, "完成度 0-100")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// statsCmd 查看连续打卡统计
func statsCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "查看连续打卡统计",
		RunE: withCore(func(cmd *cobra.Command, args []string) error {
			stats, err := core.Services.Streaks.GetStreakStats(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(stats)
			}

			fmt.Printf("🔥 当前连续: %d 天\n", stats.CurrentStreak)
			fmt.Printf("🏅 最长连续: %d 天\n", stats.LongestStreak)
			fmt.Printf("📊 累计积分: %.2f\n", stats.TotalPoints)
			if stats.LastActive != nil {
				fmt.Printf("🕒 最近活动: %s\n", stats.LastActive.Format("2006-01-02 15:04:05 -0700"))
			}
			if stats.NextMilestone != nil {
				fmt.Printf("🎯 下一个里程碑: %s（还差 %d 天）\n", stats.NextMilestone.Title, stats.NextMilestone.DaysRemaining)
			} else {
				fmt.Println("🎯 所有里程碑均已达成")
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "用户 ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// shieldCmd 保护盾库存管理
func shieldCmd() *cobra.Command {
	var userID string
	var qty int

	cmd := &cobra.Command{
		Use:   "shield",
		Short: "保护盾库存",
	}
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "用户 ID")
	_ = cmd.MarkPersistentFlagRequired("user")

	add := &cobra.Command{
		Use:   "add",
		Short: "增加保护盾",
		RunE: withCore(func(cmd *cobra.Command, args []string) error {
			if err := core.DB.RequireWritable(); err != nil {
				return err
			}
			if err := core.Repos.Streaks.AddShields(cmd.Context(), userID, qty); err != nil {
				return err
			}
			n, err := core.Repos.Streaks.GetShieldCount(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Printf("🛡️  已增加 %d 个保护盾，当前 %d 个\n", qty, n)
			return nil
		}),
	}
	add.Flags().IntVarP(&qty, "qty", "n", 1, "数量")

	count := &cobra.Command{
		Use:   "count",
		Short: "查看保护盾数量",
		RunE: withCore(func(cmd *cobra.Command, args []string) error {
			n, err := core.Repos.Streaks.GetShieldCount(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]int{"shields": n})
			}
			fmt.Printf("🛡️  当前保护盾: %d 个\n", n)
			return nil
		}),
	}

	cmd.AddCommand(add, count)
	return cmd
}

// weightCmd 预览活动权重与经验值（不落库）
func weightCmd() *cobra.Command {
	var (
		meta       service.ActivityMetadata
		score      float64
		streakDays int
	)

	cmd := &cobra.Command{
		Use:   "weight",
		Short: "预览活动权重与经验值",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("score") {
				meta.CompletionScore = &score
			}
			policy := service.DefaultScorePolicy{}
			w := policy.CalcWeight(meta)
			xp := policy.CalcXP(w, streakDays)
			if jsonOutput {
				return printJSON(map[string]any{"weight": w, "xp": xp})
			}
			fmt.Printf("权重: %.2f  经验: %d（连续 %d 天）\n", w, xp, streakDays)
			return nil
		},
	}

	cmd.Flags().StringVarP(&meta.Type, "type", "t", "", "活动类型")
	cmd.Flags().IntVarP(&meta.DurationSeconds, "duration", "d", 0, "时长（秒）")
	cmd.Flags().Float64Var(&score, "score", 50, "完成度 0-100")
	cmd.Flags().IntVar(&streakDays, "streak", 0, "连续天数（用于经验加成）")
	return cmd
}

func milestonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestones",
		Short: "列出里程碑",
		RunE: func(cmd *cobra.Command, args []string) error {
			ms := service.Milestones()
			if jsonOutput {
				return printJSON(ms)
			}
			for _, m := range ms {
				fmt.Printf("🏆 %4d 天  %-18s %s x%d\n", m.Days, m.Title, m.RewardKind, m.Quantity)
			}
			return nil
		},
	}
}

// rewardsCmd 查看已发放的里程碑奖励
func rewardsCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "查看已发放的奖励",
		RunE: withCore(func(cmd *cobra.Command, args []string) error {
			rewards, err := core.Repos.Streaks.Rewards().ListByUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(rewards)
			}
			if len(rewards) == 0 {
				fmt.Println("📭 暂无奖励")
				return nil
			}
			for _, r := range rewards {
				fmt.Printf("🎁 %s  %s x%d\n", time.UnixMilli(r.GrantedAt).Format("2006-01-02 15:04"), r.RewardKind, r.Quantity)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "用户 ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// configCmd 配置文件
func configCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件管理",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "写入默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				var err error
				if target, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("配置文件已存在: %s", target)
			}
			if err := config.WriteFile(target, config.Default()); err != nil {
				return err
			}
			fmt.Printf("✅ 已写入 %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "输出路径（默认可执行文件旁 config/config.yaml）")

	cmd.AddCommand(initCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
