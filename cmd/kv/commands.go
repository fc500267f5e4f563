package kv

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristicbz/riakgo/riak"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [bucket] [key]",
		Short: "Reads the value for a bucket/key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := args[0], args[1]

			group := riak.NewBlockingGroup()
			var obj riak.Object
			var err error
			client.AsyncFetch(bucket, key, riak.SaveHandler2(group, &obj, &err))
			group.Wait()

			if err != nil {
				return err
			}
			switch {
			case obj.InConflict():
				fmt.Printf("bucket=%s, key=%s is in conflict with %d siblings:\n",
					bucket, key, len(obj.Siblings()))
				for i, sibling := range obj.Siblings() {
					fmt.Printf("  sibling %d: %s\n", i, sibling.Value)
				}
			case !obj.Exists():
				fmt.Printf("bucket=%s, key=%s not found\n", bucket, key)
			default:
				fmt.Printf("bucket=%s, key=%s, value=%s\n", bucket, key, obj.Value())
			}
			return nil
		},
	}

	setCmd = &cobra.Command{
		Use:   "set [bucket] [key] [value]",
		Short: "Stores a value under a bucket/key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, value := args[0], args[1], args[2]

			group := riak.NewBlockingGroup()
			var err error
			client.AsyncStore(bucket, key, []byte(value), riak.SaveHandler1(group, &err))
			group.Wait()

			if err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}

	delCmd = &cobra.Command{
		Use:   "del [bucket] [key]",
		Short: "Removes a bucket/key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := args[0], args[1]

			// Fetch first so the tombstone supersedes the current clock.
			group := riak.NewBlockingGroup()
			var obj riak.Object
			var fetchErr error
			client.AsyncFetch(bucket, key, riak.SaveHandler2(group, &obj, &fetchErr))
			group.WaitAndReset()

			var err error
			if fetchErr == nil && obj.Exists() {
				client.AsyncRemoveObject(obj, riak.SaveHandler1(group, &err))
			} else {
				client.AsyncRemove(bucket, key, riak.SaveHandler1(group, &err))
			}
			group.Wait()

			if err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
)
